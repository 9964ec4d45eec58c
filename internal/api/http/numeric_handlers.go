package http

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/mindengage-numeric/internal/numeric"
)

// GET /formats
func FormatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, numeric.Infos(numeric.AllForms))
	}
}

type parseRequest struct {
	Text       string       `json:"text"`
	AllowEmpty bool         `json:"allow_empty"`
	Form       numeric.Form `json:"form,omitempty"` // render the value back in this form
}

type parseResponse struct {
	State      string       `json:"state"` // number|null|invalid
	Value      *float64     `json:"value"`
	Form       numeric.Form `json:"form,omitempty"`
	Simplified bool         `json:"simplified"`
	Formatted  string       `json:"formatted,omitempty"`
}

// POST /numeric/parse  { "text": "1 3/4", "allow_empty": false, "form": "improper" }
func ParseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req parseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Form != "" && !req.Form.Valid() {
			http.Error(w, "unknown form", http.StatusBadRequest)
			return
		}
		state := numeric.Check(req.Text, req.AllowEmpty)
		out := parseResponse{State: state.String()}
		if state == numeric.StateNumber {
			rd := numeric.Read(req.Text)
			v := rd.Number
			out.Value = &v
			out.Form = rd.Form
			out.Simplified = rd.Simplified
			f := req.Form
			if f == "" {
				f = rd.Form
			}
			out.Formatted = numeric.Format(v, f)
		}
		writeJSON(w, http.StatusOK, out)
	}
}
