package ibp

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ⭐ SSOT: 데이터셋 타입 → IBP OData 엔드포인트
var endpoints = map[string]string{
	"products":       "/sap/opu/odata/IBP/PRODUCT_MASTER_SRV/Products",
	"locations":      "/sap/opu/odata/IBP/LOCATION_MASTER_SRV/Locations",
	"customers":      "/sap/opu/odata/IBP/CUSTOMER_MASTER_SRV/Customers",
	"suppliers":      "/sap/opu/odata/IBP/SUPPLIER_MASTER_SRV/Suppliers",
	"time_profiles":  "/sap/opu/odata/IBP/TIMEPROFILE_MASTER_SRV/TimeProfiles",
	"resource_plans": "/sap/opu/odata/IBP/RESOURCE_MASTER_SRV/Resources",
}

const authPath = "/sap/opu/odata/sap/IBPAUTHENTICATION;v=0002"

// TypeKey maps a dataset type name ("Time Profiles") to its endpoint key ("time_profiles")
func TypeKey(dataType string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(dataType)), " ", "_")
}

// Endpoint returns the collection path for a dataset type
func Endpoint(dataType string) (string, error) {
	path, ok := endpoints[TypeKey(dataType)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDataType, dataType)
	}
	return path, nil
}

// RecordEndpoint returns the OData entity path for one record, e.g. Products('P001')
func RecordEndpoint(dataType, recordID string) (string, error) {
	path, err := Endpoint(dataType)
	if err != nil {
		return "", err
	}
	// OData 문자열 리터럴은 작은따옴표를 두 번 써서 이스케이프
	key := strings.ReplaceAll(recordID, "'", "''")
	return fmt.Sprintf("%s('%s')", path, url.PathEscape(key)), nil
}

// SupportedTypes lists endpoint keys in lexical order
func SupportedTypes() []string {
	keys := make([]string, 0, len(endpoints))
	for k := range endpoints {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
