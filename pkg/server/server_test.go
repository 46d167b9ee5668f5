package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/bedplan/pkg/catalog"
	"github.com/matzehuels/bedplan/pkg/errors"
	"github.com/matzehuels/bedplan/pkg/garden"
	"github.com/matzehuels/bedplan/pkg/observability"
	metrics "github.com/matzehuels/bedplan/pkg/observability/prometheus"
	"github.com/matzehuels/bedplan/pkg/pipeline"
	"github.com/matzehuels/bedplan/pkg/store"
)

func newTestServer(t *testing.T, withStore bool) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	d := Deps{
		Runner: pipeline.NewRunner(nil, nil, logger),
		Logger: logger,
	}
	if withStore {
		st, err := store.NewFileStore(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		d.Store = st
	}
	ts := httptest.NewServer(New(d).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string, out any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, data, err)
		}
	}
	return resp
}

const squareBed = `{"beds":[{"rows":4,"cols":4,"lightLevel":"high"}]}`

func TestHealth(t *testing.T) {
	ts := newTestServer(t, false)
	var body struct {
		Status string `json:"status"`
	}
	if resp := do(t, ts, "GET", "/health", "", &body); resp.StatusCode != http.StatusOK || body.Status != "ok" {
		t.Errorf("GET /health = %d %+v", resp.StatusCode, body)
	}
}

func TestCatalog(t *testing.T) {
	ts := newTestServer(t, false)
	var body struct {
		Plants []garden.PlantType `json:"plants"`
	}
	do(t, ts, "GET", "/api/catalog", "", &body)
	if len(body.Plants) != catalog.Default().Len() {
		t.Errorf("got %d plants, want %d", len(body.Plants), catalog.Default().Len())
	}
}

func TestPlan(t *testing.T) {
	ts := newTestServer(t, false)

	var resp PlanResponse
	r := do(t, ts, "POST", "/api/plan", `{"garden":`+squareBed+`,"plants":["TOM"],"options":{"prioritize_light":true}}`, &resp)
	if r.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", r.StatusCode)
	}
	cells := resp.Garden.Beds[0].Cells
	if len(cells) != 16 {
		t.Fatalf("got %d cells", len(cells))
	}
	for i, c := range cells {
		if c == nil || *c != "TOM" {
			t.Errorf("cell %d = %v, want TOM", i, c)
		}
	}
	if len(resp.Plan.Placements) != 1 || resp.Plan.Placements[0].Rect.Size() != 16 {
		t.Errorf("placements = %+v", resp.Plan.Placements)
	}
}

func TestPlanWithDecomposition(t *testing.T) {
	ts := newTestServer(t, false)
	body := `{
		"garden": {"beds":[{"rows":1,"cols":4,"lightLevel":"high"}]},
		"plant_types": [{"id":"CUC","name":"Cucumber","cells_per_specimen":2,"light":"high"}],
		"decompose": true
	}`
	var resp PlanResponse
	if r := do(t, ts, "POST", "/api/plan", body, &resp); r.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", r.StatusCode)
	}
	if len(resp.Regions) != 1 || len(resp.Regions[0]) != 1 || len(resp.Regions[0][0].Instances) != 2 {
		t.Errorf("regions = %+v, want one region of two specimens", resp.Regions)
	}
}

func TestPlanErrors(t *testing.T) {
	ts := newTestServer(t, false)
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   errors.Code
	}{
		{"empty body", "", http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"malformed json", "{", http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"unknown field", `{"garden":` + squareBed + `,"shade":1}`, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"unknown plant", `{"garden":` + squareBed + `,"plants":["XYZ"]}`, http.StatusBadRequest, errors.ErrCodeUnknownPlant},
		{"bad light", `{"garden":{"beds":[{"rows":1,"cols":1,"lightLevel":"dim"}]}}`, http.StatusBadRequest, errors.ErrCodeInvalidLight},
		{"bad policy", `{"garden":` + squareBed + `,"options":{"policy":"fancy"}}`, http.StatusBadRequest, errors.ErrCodeInvalidPolicy},
		{"unknown planted cell", `{"garden":{"beds":[{"rows":2,"cols":2,"lightLevel":"high","cells":["ZZZ",null,null,null]}]},"plants":["TOM"]}`, http.StatusBadRequest, errors.ErrCodeUnknownPlant},
		{"target for unselected plant", `{"garden":` + squareBed + `,"plants":["TOM"],"options":{"targets":{"PEP":4}}}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"plants and plant_types", `{"garden":` + squareBed + `,"plants":["TOM"],"plant_types":[{"id":"ZZZ","light":"high"}]}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			r := do(t, ts, "POST", "/api/plan", tt.body, &body)
			if r.StatusCode != tt.wantStatus || body.Code != tt.wantCode {
				t.Errorf("got %d %+v, want %d %s", r.StatusCode, body, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestPlanDecomposesExistingSprawlers(t *testing.T) {
	ts := newTestServer(t, false)
	body := `{
		"garden": {"beds":[{"rows":2,"cols":4,"lightLevel":"high","cells":["CUC","CUC",null,null,"CUC","CUC",null,null]}]},
		"plants": ["TOM"],
		"decompose": true
	}`
	var resp PlanResponse
	if r := do(t, ts, "POST", "/api/plan", body, &resp); r.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", r.StatusCode)
	}
	if len(resp.Regions[0]) != 1 || resp.Regions[0][0].PlantID != "CUC" || len(resp.Regions[0][0].Instances) != 2 {
		t.Errorf("regions = %+v, want the cucumber region split in two", resp.Regions)
	}
}

func TestDecomposeRejectsUnknownPlant(t *testing.T) {
	ts := newTestServer(t, false)
	body := `{"garden":{"beds":[{"rows":1,"cols":2,"lightLevel":"high","cells":["ZZZ","ZZZ"]}]}}`
	var resp errorBody
	r := do(t, ts, "POST", "/api/decompose", body, &resp)
	if r.StatusCode != http.StatusBadRequest || resp.Code != errors.ErrCodeUnknownPlant {
		t.Errorf("got %d %+v, want 400 %s", r.StatusCode, resp, errors.ErrCodeUnknownPlant)
	}

	custom := `{"garden":{"beds":[{"rows":1,"cols":2,"lightLevel":"high","cells":["ZZZ","ZZZ"]}]},"plant_types":[{"id":"ZZZ","name":"Zing","cells_per_specimen":2,"light":"high"}]}`
	var ok DecomposeResponse
	if r := do(t, ts, "POST", "/api/decompose", custom, &ok); r.StatusCode != http.StatusOK {
		t.Fatalf("custom plant: status = %d", r.StatusCode)
	}
	if len(ok.Regions[0]) != 1 || len(ok.Regions[0][0].Instances) != 1 {
		t.Errorf("regions = %+v, want one pair", ok.Regions)
	}
}

func TestDecompose(t *testing.T) {
	ts := newTestServer(t, false)
	body := `{"garden":{"beds":[{"rows":1,"cols":4,"lightLevel":"high","cells":["CUC","CUC","CUC","CUC"]}]}}`
	var resp DecomposeResponse
	if r := do(t, ts, "POST", "/api/decompose", body, &resp); r.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", r.StatusCode)
	}
	if len(resp.Regions[0]) != 1 || resp.Regions[0][0].SpecimenSize != 2 || len(resp.Regions[0][0].Instances) != 2 {
		t.Errorf("regions = %+v", resp.Regions)
	}
}

func TestGardensCRUD(t *testing.T) {
	ts := newTestServer(t, true)

	var created store.Record
	r := do(t, ts, "POST", "/api/gardens", `{"name":"patio","beds":[{"rows":2,"cols":2,"lightLevel":"low"}]}`, &created)
	if r.StatusCode != http.StatusCreated || created.ID == "" {
		t.Fatalf("create = %d %+v", r.StatusCode, created)
	}
	if loc := r.Header.Get("Location"); loc != "/api/gardens/"+created.ID {
		t.Errorf("Location = %q", loc)
	}

	var list struct {
		Gardens []store.Record `json:"gardens"`
	}
	do(t, ts, "GET", "/api/gardens", "", &list)
	if len(list.Gardens) != 1 || list.Gardens[0].ID != created.ID {
		t.Errorf("list = %+v", list)
	}

	var updated store.Record
	if r := do(t, ts, "PUT", "/api/gardens/"+created.ID, `{"name":"terrace","beds":[{"rows":2,"cols":2,"lightLevel":"low"}]}`, &updated); r.StatusCode != http.StatusOK || updated.Name() != "terrace" {
		t.Errorf("update = %d %+v", r.StatusCode, updated)
	}

	var planned PlanResponse
	if r := do(t, ts, "POST", "/api/gardens/"+created.ID+"/plan", `{"plants":["LET"],"save":true}`, &planned); r.StatusCode != http.StatusOK {
		t.Fatalf("plan stored = %d", r.StatusCode)
	}
	if planned.ID != created.ID {
		t.Errorf("plan response id = %q", planned.ID)
	}

	var got store.Record
	do(t, ts, "GET", "/api/gardens/"+created.ID, "", &got)
	for i, c := range got.Garden.Beds[0].Cells {
		if c == nil || *c != "LET" {
			t.Errorf("saved cell %d = %v, want LET", i, c)
		}
	}

	if r := do(t, ts, "DELETE", "/api/gardens/"+created.ID, "", nil); r.StatusCode != http.StatusNoContent {
		t.Errorf("delete = %d", r.StatusCode)
	}
	var e errorBody
	if r := do(t, ts, "GET", "/api/gardens/"+created.ID, "", &e); r.StatusCode != http.StatusNotFound || e.Code != errors.ErrCodeGardenNotFound {
		t.Errorf("get deleted = %d %+v", r.StatusCode, e)
	}
	if r := do(t, ts, "GET", "/api/gardens/not-an-id", "", &e); r.StatusCode != http.StatusBadRequest {
		t.Errorf("get malformed id = %d", r.StatusCode)
	}
}

func TestGardensWithoutStore(t *testing.T) {
	ts := newTestServer(t, false)
	var e errorBody
	if r := do(t, ts, "GET", "/api/gardens", "", &e); r.StatusCode != http.StatusNotImplemented || e.Code != errors.ErrCodeUnsupported {
		t.Errorf("got %d %+v", r.StatusCode, e)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	defer observability.Reset()
	reg := prometheus.NewRegistry()
	metrics.New(reg).Register()

	logger := log.New(io.Discard)
	ts := httptest.NewServer(New(Deps{
		Logger:  logger,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}).Handler())
	defer ts.Close()

	do(t, ts, "GET", "/api/catalog", "", nil)
	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), `bedplan_http_requests_total{method="GET",route="/api/catalog",status="200"} 1`) {
		t.Errorf("metrics output missing request counter:\n%s", buf.String())
	}
}

func TestSetCatalog(t *testing.T) {
	s := New(Deps{Logger: log.New(io.Discard)})
	small, err := catalog.New([]garden.PlantType{{ID: "TOM", Name: "Tomato", SpacingFactor: 1, Light: garden.LightHigh}})
	if err != nil {
		t.Fatal(err)
	}
	s.SetCatalog(small)
	s.SetCatalog(nil)
	if s.Catalog().Len() != 1 {
		t.Errorf("Catalog().Len() = %d, want 1", s.Catalog().Len())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidBed, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeUnknownPlant, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeGardenNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeNetwork, "x"), http.StatusServiceUnavailable},
		{errors.New(errors.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{errors.New(errors.ErrCodeInternal, "x"), http.StatusInternalServerError},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
