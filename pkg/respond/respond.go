package respond

import (
	"encoding/json"
	"net/http"
)

// Envelope wraps collections and mutation results.
type Envelope[T any] struct {
	Total int64 `json:"total"`
	List  []T   `json:"list"`
}

func JSON(w http.ResponseWriter, r *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

// List writes items with a total that may differ from len(items), such as the
// number of affected rows of a mutation.
func List[T any](w http.ResponseWriter, r *http.Request, code int, total int64, items []T) {
	if items == nil {
		items = []T{}
	}
	JSON(w, r, code, Envelope[T]{Total: total, List: items})
}

func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	JSON(w, r, code, map[string]string{"error": message})
}
