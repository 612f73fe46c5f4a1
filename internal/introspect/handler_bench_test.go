package introspect

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/conduit-lang/modelkit/internal/model"
)

func benchHandler(b *testing.B) *Handler {
	b.Helper()
	r := model.NewRegistry()
	_, err := r.Extend(model.Definition{
		Name: "Person",
		Properties: []model.PropertySpec{
			{Name: "name", Type: "string", Required: true},
			{Name: "age", Type: "integer"},
		},
	})
	if err != nil {
		b.Fatalf("extend failed: %v", err)
	}
	return NewHandler(r)
}

// BenchmarkGetClass benchmarks describing one class through the router
func BenchmarkGetClass(b *testing.B) {
	h := benchHandler(b)
	req := httptest.NewRequest(http.MethodGet, "/classes/Person", nil)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
	}
}

// BenchmarkValidateRequest benchmarks the validation endpoint
func BenchmarkValidateRequest(b *testing.B) {
	h := benchHandler(b)
	body := `{"name":"Ann","age":30}`

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/classes/Person/validate", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", w.Code)
		}
	}
}
