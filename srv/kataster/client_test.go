package kataster

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// fakeService returns an httptest server that records the last query and
// answers with the given body.
func fakeService(t *testing.T, status int, body string) (*Client, *url.Values) {
	t.Helper()
	var lastQuery url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastQuery = r.URL.Query()
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return NewClientWithURL(ts.URL), &lastQuery
}

const listBody = `{
	"type": "FeatureCollection",
	"features": [
		{"properties": {"tunnus": "79501:027:0011", "kehtiv_alates": "2015-03-01T00:00:00Z", "kehtiv_kuni": "2019-03-01T00:00:00Z", "omandamisviis": "ost"}},
		{"properties": {"tunnus": "79501:027:0011", "kehtiv_alates": "2019-03-01T00:00:00Z", "kehtiv_kuni": null, "omandamisviis": "ost"}}
	]
}`

func TestListVersions(t *testing.T) {
	client, lastQuery := fakeService(t, http.StatusOK, listBody)

	versions, err := client.ListVersions(context.Background(), "79501:027:0011", "2018-01-01")
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}

	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
	// Active version sorts first regardless of response order.
	if versions[0].ValidTo != "" {
		t.Errorf("expected active version first, got ValidTo %q", versions[0].ValidTo)
	}
	// Timestamps are normalized to date-only form.
	if versions[0].ValidFrom != "2019-03-01" {
		t.Errorf("expected date-only ValidFrom, got %q", versions[0].ValidFrom)
	}
	if versions[1].ValidTo != "2019-03-01" {
		t.Errorf("expected date-only ValidTo, got %q", versions[1].ValidTo)
	}
	if versions[0].Acquisition != "ost" {
		t.Errorf("expected acquisition method, got %q", versions[0].Acquisition)
	}

	filter := lastQuery.Get("CQL_FILTER")
	if filter == "" {
		t.Fatal("request carried no CQL_FILTER")
	}
	wantTemporal := TemporalPredicate("2018-01-01")
	if !strings.Contains(filter, wantTemporal) {
		t.Errorf("filter %q missing temporal predicate %q", filter, wantTemporal)
	}
}

func TestListVersionsRejectsBadInput(t *testing.T) {
	// No server: validation must fail before any request is built.
	client := NewClientWithURL("http://127.0.0.1:0")

	if _, err := client.ListVersions(context.Background(), "not-a-tunnus", ""); !errors.Is(err, ErrBadTunnus) {
		t.Errorf("expected ErrBadTunnus, got %v", err)
	}
	if _, err := client.ListVersions(context.Background(), "79501:027:0011", "01.01.2020"); !errors.Is(err, ErrBadDate) {
		t.Errorf("expected ErrBadDate, got %v", err)
	}
}

func TestFetchGeometry(t *testing.T) {
	t.Run("returns matching record", func(t *testing.T) {
		body := `{"type": "FeatureCollection", "features": [
			{"properties": {"tunnus": "79501:027:0011", "kehtiv_alates": "2019-03-01", "kehtiv_kuni": null},
			 "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}}
		]}`
		client, lastQuery := fakeService(t, http.StatusOK, body)

		records, err := client.FetchGeometry(context.Background(), "79501:027:0011", "2019-03-01", "")
		if err != nil {
			t.Fatalf("FetchGeometry failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}
		if records[0].Geometry == nil {
			t.Fatal("expected geometry in record")
		}
		if !strings.Contains(lastQuery.Get("CQL_FILTER"), "kehtiv_kuni IS NULL") {
			t.Errorf("active interval filter missing IS NULL: %q", lastQuery.Get("CQL_FILTER"))
		}
	})

	t.Run("zero features is ErrNoGeometry", func(t *testing.T) {
		client, _ := fakeService(t, http.StatusOK, `{"type": "FeatureCollection", "features": []}`)

		_, err := client.FetchGeometry(context.Background(), "79501:027:0011", "2019-03-01", "")
		if !errors.Is(err, ErrNoGeometry) {
			t.Errorf("expected ErrNoGeometry, got %v", err)
		}
	})
}

func TestIdentifyAt(t *testing.T) {
	t.Run("hit", func(t *testing.T) {
		body := `{"type": "FeatureCollection", "features": [
			{"properties": {"tunnus": "79501:027:0011", "kehtiv_alates": "2019-03-01", "kehtiv_kuni": null}}
		]}`
		client, lastQuery := fakeService(t, http.StatusOK, body)

		tunnus, err := client.IdentifyAt(context.Background(), 542466, 6589194, "")
		if err != nil {
			t.Fatalf("IdentifyAt failed: %v", err)
		}
		if tunnus != "79501:027:0011" {
			t.Errorf("expected 79501:027:0011, got %q", tunnus)
		}
		if lastQuery.Get("count") != "1" {
			t.Errorf("expected count=1, got %q", lastQuery.Get("count"))
		}
	})

	t.Run("miss", func(t *testing.T) {
		client, _ := fakeService(t, http.StatusOK, `{"type": "FeatureCollection", "features": []}`)

		_, err := client.IdentifyAt(context.Background(), 0, 0, "")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestServerError(t *testing.T) {
	client, _ := fakeService(t, http.StatusInternalServerError, "boom")

	if _, err := client.ListVersions(context.Background(), "79501:027:0011", ""); !errors.Is(err, ErrServer) {
		t.Errorf("expected ErrServer, got %v", err)
	}
}

func TestMalformedResponse(t *testing.T) {
	client, _ := fakeService(t, http.StatusOK, "<html>not json</html>")

	if _, err := client.FetchHistory(context.Background(), "79501:027:0011"); err == nil {
		t.Error("expected parse error for non-JSON response")
	}
}
