package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-numeric/internal/storage"
)

const maxAssetBytes = 8 << 20

var reExt = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// POST /exercises/{exerciseID}/assets  (multipart, field "file")
//
// Stores an image or other file referenced from widget prompts.
func UploadAssetHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exID := chi.URLParam(r, "exerciseID")
		if _, err := d.Store.GetExerciseAdmin(r.Context(), exID); err != nil {
			writeErr(w, d.Log, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxAssetBytes)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		ext := strings.ToLower(path.Ext(hdr.Filename))
		if !reExt.MatchString(ext) {
			ext = ".bin"
		}
		key, err := d.Blobs.Put("exercises/"+exID+"/"+uuid.NewString()+ext, f)
		if err != nil {
			writeErr(w, d.Log, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"key": key, "url": d.Blobs.URL(key)})
	}
}

// GET /assets/*
func GetAssetHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := d.Blobs.Get(key)
		if err != nil {
			if errors.Is(err, storage.ErrBadKey) {
				http.Error(w, "bad key", http.StatusBadRequest)
				return
			}
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	}
}
