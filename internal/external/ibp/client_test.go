package ibp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mdhealth/internal/contracts"
	"github.com/wonny/mdhealth/pkg/config"
	"github.com/wonny/mdhealth/pkg/httputil"
)

const productsPayload = `{
  "d": {
    "__count": "3",
    "results": [
      {"__metadata": {"uri": "x"}, "ProductID": "P001", "ProductName": "Bolt", "Weight": 1.5, "LastUpdated": "/Date(1760000000000)/", "Plant@odata": "n/a"},
      {"__metadata": {"uri": "y"}, "ProductID": "P002", "ProductName": null, "Weight": 2, "LastUpdated": "/Date(1760086400000)/"},
      {"ProductID": "P003", "Weight": 3, "LastUpdated": "/Date(1760172800000)/", "Extra": true}
    ]
  }
}`

type fakeIBP struct {
	t          *testing.T
	authCalls  atomic.Int32
	authStatus int
	token      string
	routes     map[string]http.HandlerFunc
}

func newFakeIBP(t *testing.T) *fakeIBP {
	return &fakeIBP{t: t, authStatus: http.StatusOK, token: "tok-123", routes: map[string]http.HandlerFunc{}}
}

func (f *fakeIBP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != "planner@100" || pass != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if r.URL.Path == authPath {
		f.authCalls.Add(1)
		assert.Equal(f.t, "fetch", r.Header.Get(csrfHeader))
		if f.authStatus != http.StatusOK {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(f.authStatus)
			_, _ = io.WriteString(w, "<html><head><title>Logon failed</title></head><body><h1>401 Unauthorized</h1><p>User is locked</p></body></html>")
			return
		}
		w.Header().Set(csrfHeader, f.token)
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Header.Get(csrfHeader) != f.token {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	h, ok := f.routes[r.Method+" "+r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h(w, r)
}

func newTestClient(t *testing.T, f *fakeIBP) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	cfg := config.IBPConfig{URL: srv.URL, Client: "100", Username: "planner", Password: "secret"}
	return NewClient(cfg, httputil.New(nil, nil).DisableRetry(), nil)
}

func TestFetchMasterData_V2Results(t *testing.T) {
	f := newFakeIBP(t)
	f.routes["GET /sap/opu/odata/IBP/PRODUCT_MASTER_SRV/Products"] = func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, productsPayload)
	}
	c := newTestClient(t, f)

	tbl, err := c.FetchMasterData(context.Background(), "Products")
	require.NoError(t, err)

	assert.Equal(t, []string{"ProductID", "ProductName", "Weight", "LastUpdated", "Extra"}, tbl.ColumnNames())
	assert.Equal(t, 3, tbl.NumRows())

	weight, _ := tbl.Column("Weight")
	assert.Equal(t, contracts.ColumnNumeric, weight.Type)
	updated, _ := tbl.Column("LastUpdated")
	assert.Equal(t, contracts.ColumnDatetime, updated.Type)

	idx := tbl.ColumnIndex("ProductName")
	assert.Nil(t, tbl.Rows[1][idx])
	assert.Nil(t, tbl.Rows[2][idx], "missing key is null")

	ts, ok := contracts.AsTime(tbl.Rows[0][tbl.ColumnIndex("LastUpdated")])
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(1760000000000).UTC(), ts)
}

func TestFetchMasterData_TokenCached(t *testing.T) {
	f := newFakeIBP(t)
	f.routes["GET /sap/opu/odata/IBP/LOCATION_MASTER_SRV/Locations"] = func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"value":[{"LocationID":"L1"},{"LocationID":"L2"}]}`)
	}
	c := newTestClient(t, f)

	for i := 0; i < 3; i++ {
		tbl, err := c.FetchMasterData(context.Background(), "Locations")
		require.NoError(t, err)
		assert.Equal(t, 2, tbl.NumRows())
	}
	assert.EqualValues(t, 1, f.authCalls.Load())
}

func TestFetchMasterData_TokenExpiry(t *testing.T) {
	f := newFakeIBP(t)
	f.routes["GET /sap/opu/odata/IBP/LOCATION_MASTER_SRV/Locations"] = func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"value":[]}`)
	}
	c := newTestClient(t, f)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.FetchMasterData(context.Background(), "Locations")
	require.NoError(t, err)

	now = now.Add(TokenTTL + time.Minute)
	_, err = c.FetchMasterData(context.Background(), "Locations")
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.authCalls.Load())
}

func TestFetchMasterData_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		rows    int
		columns int
	}{
		{"single entity", `{"d":{"__metadata":{},"CustomerID":"C1","Name":"Acme"}}`, 1, 2},
		{"empty results", `{"d":{"results":[]}}`, 0, 0},
		{"empty value", `{"value":[]}`, 0, 0},
		{"no known envelope", `{"odata.metadata":"x"}`, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeIBP(t)
			f.routes["GET /sap/opu/odata/IBP/CUSTOMER_MASTER_SRV/Customers"] = func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.payload)
			}
			c := newTestClient(t, f)

			tbl, err := c.FetchMasterData(context.Background(), "customers")
			require.NoError(t, err)
			require.NotNil(t, tbl)
			assert.Equal(t, tt.rows, tbl.NumRows())
			assert.Len(t, tbl.Columns, tt.columns)
		})
	}
}

func TestFetchMasterData_Errors(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		c := newTestClient(t, newFakeIBP(t))
		_, err := c.FetchMasterData(context.Background(), "Warehouses")
		assert.ErrorIs(t, err, ErrUnknownDataType)
	})

	t.Run("auth failure", func(t *testing.T) {
		f := newFakeIBP(t)
		f.authStatus = http.StatusUnauthorized
		c := newTestClient(t, f)

		_, err := c.FetchMasterData(context.Background(), "Products")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAuthFailed)

		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
		assert.Equal(t, "Logon failed - 401 Unauthorized - User is locked", statusErr.Summary)
	})

	t.Run("server error", func(t *testing.T) {
		f := newFakeIBP(t)
		f.routes["GET /sap/opu/odata/IBP/SUPPLIER_MASTER_SRV/Suppliers"] = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":{"message":"boom"}}`)
		}
		c := newTestClient(t, f)

		_, err := c.FetchMasterData(context.Background(), "Suppliers")
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("malformed payload", func(t *testing.T) {
		f := newFakeIBP(t)
		f.routes["GET /sap/opu/odata/IBP/SUPPLIER_MASTER_SRV/Suppliers"] = func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `[1,2,3]`)
		}
		c := newTestClient(t, f)

		_, err := c.FetchMasterData(context.Background(), "Suppliers")
		assert.Error(t, err)
	})
}

func TestSubmitCorrection(t *testing.T) {
	f := newFakeIBP(t)
	var got map[string]any
	f.routes["PATCH /sap/opu/odata/IBP/PRODUCT_MASTER_SRV/Products('P001')"] = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}
	f.routes["PATCH /sap/opu/odata/IBP/PRODUCT_MASTER_SRV/Products('BAD')"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "invalid   unit\nof measure")
	}
	c := newTestClient(t, f)

	err := c.SubmitCorrection(context.Background(), "Products", "P001", map[string]any{"UnitOfMeasure": "EA"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"UnitOfMeasure": "EA"}, got)

	err = c.SubmitCorrection(context.Background(), "Products", "BAD", map[string]any{"UnitOfMeasure": "??"})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.Equal(t, "invalid unit of measure", statusErr.Summary)

	err = c.SubmitCorrection(context.Background(), "Widgets", "1", nil)
	assert.ErrorIs(t, err, ErrUnknownDataType)
}

func TestTestConnection(t *testing.T) {
	f := newFakeIBP(t)
	c := newTestClient(t, f)
	require.NoError(t, c.TestConnection(context.Background()))
	require.NoError(t, c.TestConnection(context.Background()))
	assert.EqualValues(t, 2, f.authCalls.Load(), "connection test always re-authenticates")

	f.token = ""
	err := c.TestConnection(context.Background())
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestTypeKeyAndEndpoints(t *testing.T) {
	assert.Equal(t, "time_profiles", TypeKey("Time Profiles"))
	assert.Equal(t, "resource_plans", TypeKey(" Resource Plans "))

	p, err := Endpoint("Resource Plans")
	require.NoError(t, err)
	assert.Equal(t, "/sap/opu/odata/IBP/RESOURCE_MASTER_SRV/Resources", p)

	rec, err := RecordEndpoint("Locations", "L 01")
	require.NoError(t, err)
	assert.Equal(t, "/sap/opu/odata/IBP/LOCATION_MASTER_SRV/Locations('L%2001')", rec)

	assert.Len(t, SupportedTypes(), 6)
}

func TestSummarize(t *testing.T) {
	long := strings.Repeat("x", 500)
	assert.Len(t, []rune(summarize("text/plain", strings.NewReader(long))), maxSummaryLen+3)
	assert.Equal(t, "", summarize("text/plain", strings.NewReader("")))
	assert.Equal(t, "Service Unavailable", summarize("", strings.NewReader("<!DOCTYPE html><html><title>Service Unavailable</title></html>")))
}
