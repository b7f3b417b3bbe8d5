package barcodes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/KocBilge/barcode/frontend/listview"
	requestcontext "github.com/KocBilge/barcode/frontend/shared/context"
	"github.com/KocBilge/barcode/frontend/shared/nav"
	"github.com/KocBilge/barcode/frontend/theme"
	"github.com/KocBilge/barcode/infrastructure/audit"
	"github.com/KocBilge/barcode/infrastructure/cache"
	"github.com/KocBilge/barcode/infrastructure/sqlite"
)

// RecentLimit is the size of the recent activity list.
const RecentLimit = 10

func redirectWithStatus(w http.ResponseWriter, r *http.Request, status string) {
	http.Redirect(w, r, "/?status="+url.QueryEscape(status), http.StatusSeeOther)
}

func setActiveSection(w http.ResponseWriter, name string) {
	cookie := &http.Cookie{
		Name:     ActiveSectionCookie,
		Value:    url.QueryEscape(name),
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   365 * 24 * 60 * 60,
	}
	if name == "" {
		cookie.MaxAge = -1
	}
	http.SetCookie(w, cookie)
}

func activeSection(r *http.Request) string {
	c, err := r.Cookie(ActiveSectionCookie)
	if err != nil {
		return ""
	}
	name, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(name)
}

func newController(perPage int) *listview.Controller {
	c := listview.NewController(listview.NewStore())
	if perPage > 0 {
		c.PerPage = perPage
	}
	return c
}

func IndexPageQueryHandler(db *sqlite.DB, perPage int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := SectionNames(r.Context(), db)
		if err != nil {
			slog.Error("load sections failed", slog.Any("err", err))
			http.Error(w, "failed to load sections", http.StatusInternalServerError)
			return
		}
		data, err := LoadAll(r.Context(), db)
		if err != nil {
			slog.Error("load barcodes failed", slog.Any("err", err))
			http.Error(w, "failed to load barcodes", http.StatusInternalServerError)
			return
		}

		active := activeSection(r)
		if !containsName(names, active) {
			active = ""
			if len(names) > 0 {
				active = names[0]
			}
		}

		controller := newController(perPage)
		controller.Refresh(data)
		cards := make([]SectionCard, 0, len(names))
		for _, name := range names {
			view, ok := controller.View(name, 1)
			if !ok {
				continue
			}
			cards = append(cards, SectionCard{Name: name, View: view})
		}

		page := PageData{
			Nav:      nav.BuildTopNavData(theme.FromRequest(r), active),
			Status:   strings.TrimSpace(r.URL.Query().Get("status")),
			Sections: names,
			Cards:    cards,
			Recent:   listview.Recent(data, RecentLimit, controller.Location),
			Year:     time.Now().Year(),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := IndexPage(page).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render page", http.StatusInternalServerError)
			return
		}
	}
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func CreateSectionCommandHandler(db *sqlite.DB, auditSvc *audit.Service, sections *cache.SectionCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithStatus(w, r, "Invalid form")
			return
		}
		name := strings.TrimSpace(r.FormValue("section"))
		err := CreateSection(r.Context(), db, auditSvc, requestcontext.Actor(r.Context()), name)
		switch {
		case errors.Is(err, ErrSectionRequired):
			redirectWithStatus(w, r, "Section name is required")
			return
		case errors.Is(err, ErrSectionExists):
			redirectWithStatus(w, r, fmt.Sprintf("Section %q already exists. Choose another name.", name))
			return
		case err != nil:
			slog.Error("create section failed", slog.String("section", name), slog.Any("err", err))
			redirectWithStatus(w, r, "Failed to create section")
			return
		}
		sections.Add(name)
		setActiveSection(w, name)
		redirectWithStatus(w, r, fmt.Sprintf("Section %q created and activated.", name))
	}
}

func DeleteSectionCommandHandler(db *sqlite.DB, auditSvc *audit.Service, sections *cache.SectionCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithStatus(w, r, "Invalid form")
			return
		}
		name := strings.TrimSpace(r.FormValue("section"))
		if stored, ok := sections.Lookup(name); ok {
			name = stored
		}
		deleted, err := DeleteSection(r.Context(), db, auditSvc, requestcontext.Actor(r.Context()), name)
		if err != nil {
			slog.Error("delete section failed", slog.String("section", name), slog.Any("err", err))
			redirectWithStatus(w, r, "Failed to delete section")
			return
		}
		if !deleted {
			redirectWithStatus(w, r, "Could not delete: section not found.")
			return
		}
		sections.Remove(name)
		if strings.EqualFold(activeSection(r), name) {
			setActiveSection(w, "")
		}
		redirectWithStatus(w, r, fmt.Sprintf("Section %q deleted.", name))
	}
}

func DeleteCodeCommandHandler(db *sqlite.DB, auditSvc *audit.Service, sections *cache.SectionCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithStatus(w, r, "Invalid form")
			return
		}
		section, ok := sections.Lookup(r.FormValue("section"))
		if !ok {
			redirectWithStatus(w, r, "Section not found.")
			return
		}
		code := strings.TrimSpace(r.FormValue("code"))
		removed, err := DeleteCode(r.Context(), db, auditSvc, requestcontext.Actor(r.Context()), section, code)
		if err != nil {
			slog.Error("delete code failed", slog.String("section", section), slog.String("code", code), slog.Any("err", err))
			redirectWithStatus(w, r, "Failed to delete barcode")
			return
		}
		if removed == 0 {
			redirectWithStatus(w, r, fmt.Sprintf("Barcode %s not found.", code))
			return
		}
		redirectWithStatus(w, r, fmt.Sprintf("Barcode %s deleted.", code))
	}
}

func BulkDeleteCommandHandler(db *sqlite.DB, auditSvc *audit.Service, sections *cache.SectionCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithStatus(w, r, "Invalid form")
			return
		}
		section, ok := sections.Lookup(r.FormValue("section"))
		if !ok {
			redirectWithStatus(w, r, "Section not found.")
			return
		}
		codes := r.Form["codes"]
		removed, err := BulkDelete(r.Context(), db, auditSvc, requestcontext.Actor(r.Context()), section, codes)
		if err != nil {
			slog.Error("bulk delete failed", slog.String("section", section), slog.Any("err", err))
			redirectWithStatus(w, r, "Failed to delete barcodes")
			return
		}
		redirectWithStatus(w, r, fmt.Sprintf("%d barcodes deleted.", removed))
	}
}

// ScanCommandHandler accepts {"code","section"} from the scanner page or a keyed device.
// The reply body is one of the Reply constants.
func ScanCommandHandler(db *sqlite.DB, auditSvc *audit.Service, sections *cache.SectionCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		var req scanRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		sectionName := strings.TrimSpace(req.Section)
		if sectionName == "" {
			sectionName = activeSection(r)
		}
		section, ok := sections.Lookup(sectionName)
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(ReplyInvalidSection))
			return
		}
		code := strings.TrimSpace(req.Code)
		if code == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(ReplyMissingCode))
			return
		}

		inserted, err := InsertBarcode(r.Context(), db, auditSvc, requestcontext.Actor(r.Context()), section, code, NowStamp())
		if err != nil {
			slog.Error("scan insert failed", slog.String("section", section), slog.String("code", code), slog.Any("err", err))
			http.Error(w, "failed to store barcode", http.StatusInternalServerError)
			return
		}
		reply := ReplyAlreadyExists
		if inserted {
			reply = ReplyOK
			slog.Info("barcode scanned", slog.String("section", section), slog.String("code", code))
		}
		_, _ = w.Write([]byte(reply))
	}
}

// LatestBarcodesQueryHandler publishes every section with its codes. Unreadable
// timestamps are sent as null.
func LatestBarcodesQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := LoadAll(r.Context(), db)
		if err != nil {
			slog.Error("load barcodes failed", slog.Any("err", err))
			http.Error(w, "failed to load barcodes", http.StatusInternalServerError)
			return
		}
		out := make(map[string][]latestRecord, len(data))
		for section, records := range data {
			list := make([]latestRecord, 0, len(records))
			for _, rec := range records {
				entry := latestRecord{Code: rec.Code}
				if rec.Timestamp != "" {
					ts := rec.Timestamp
					entry.Timestamp = &ts
				}
				list = append(list, entry)
			}
			out[section] = list
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			slog.Error("encode latest barcodes failed", slog.Any("err", err))
		}
	}
}

// SectionFragmentQueryHandler re-renders one section body. q selects a text filter,
// otherwise start and end select a date filter. An unknown section yields 204.
func SectionFragmentQueryHandler(db *sqlite.DB, perPage int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		section, err := url.PathUnescape(chi.URLParam(r, "section"))
		if err != nil {
			http.Error(w, "invalid section", http.StatusBadRequest)
			return
		}
		section, err = ResolveSection(r.Context(), db, section)
		if errors.Is(err, sql.ErrNoRows) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err != nil {
			slog.Error("resolve section failed", slog.Any("err", err))
			http.Error(w, "failed to load section", http.StatusInternalServerError)
			return
		}
		records, err := LoadSectionRecords(r.Context(), db, section)
		if errors.Is(err, sql.ErrNoRows) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err != nil {
			slog.Error("load section failed", slog.String("section", section), slog.Any("err", err))
			http.Error(w, "failed to load section", http.StatusInternalServerError)
			return
		}

		query := r.URL.Query()
		page, _ := strconv.Atoi(query.Get("page"))
		controller := newController(perPage)
		controller.Store().SetRaw(section, records)
		if q := strings.TrimSpace(query.Get("q")); q != "" {
			controller.ApplyTextFilter(section, q)
		} else {
			controller.ApplyDateFilter(query.Get("start"), query.Get("end"))
		}

		view, ok := controller.View(section, page)
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := listview.SectionFragment(view).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render section", http.StatusInternalServerError)
			return
		}
	}
}

func RecentFragmentQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := LoadAll(r.Context(), db)
		if err != nil {
			slog.Error("load barcodes failed", slog.Any("err", err))
			http.Error(w, "failed to load barcodes", http.StatusInternalServerError)
			return
		}
		entries := listview.Recent(data, RecentLimit, time.Local)
		w.Header().Set("Cache-Control", "no-store")
		if strings.Contains(r.Header.Get("Accept"), "application/json") {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(entries)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := listview.RecentList(entries).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render recent list", http.StatusInternalServerError)
			return
		}
	}
}

// UploadCommandHandler decodes the barcodes on an uploaded photo and files the new
// ones under the chosen section.
func UploadCommandHandler(db *sqlite.DB, auditSvc *audit.Service, sections *cache.SectionCache, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			redirectWithStatus(w, r, "Upload too large or malformed")
			return
		}
		sectionName := strings.TrimSpace(r.FormValue("section"))
		if sectionName == "" {
			sectionName = activeSection(r)
		}
		section, ok := sections.Lookup(sectionName)
		if !ok {
			redirectWithStatus(w, r, "Choose a section first.")
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			redirectWithStatus(w, r, "No file uploaded.")
			return
		}
		defer file.Close()
		if header.Filename == "" {
			redirectWithStatus(w, r, "No file selected.")
			return
		}

		codes, err := DecodeImage(file)
		if errors.Is(err, ErrImageUnreadable) {
			redirectWithStatus(w, r, "Image could not be read.")
			return
		}
		if err != nil {
			slog.Error("decode upload failed", slog.String("file", header.Filename), slog.Any("err", err))
			redirectWithStatus(w, r, "Image could not be read.")
			return
		}

		actor := requestcontext.Actor(r.Context())
		added := 0
		for _, code := range codes {
			inserted, err := InsertBarcode(r.Context(), db, auditSvc, actor, section, code, NowStamp())
			if err != nil {
				slog.Error("upload insert failed", slog.String("section", section), slog.String("code", code), slog.Any("err", err))
				continue
			}
			if inserted {
				added++
			}
		}
		if added == 0 {
			redirectWithStatus(w, r, "No new barcode found, or all are already stored.")
			return
		}
		redirectWithStatus(w, r, fmt.Sprintf("%d new barcodes added.", added))
	}
}
