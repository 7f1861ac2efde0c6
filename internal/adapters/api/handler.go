package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/domain"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/markdown"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/usecase/admin"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/usecase/loader"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/usecase/progress"
)

// installHeader несёт непрозрачный идентификатор установки клиента.
// Аккаунтов нет: одна установка — один журнал прогресса.
const installHeader = "X-Install-ID"

const maxImportBody = 4 << 20

// Handler связывает HTTP-маршруты с usecase-слоем.
type Handler struct {
	loader    *loader.Service
	progress  *progress.Service
	admin     *admin.Service
	snapshots domain.SnapshotRepo
	log       zerolog.Logger
}

// NewHandler создаёт обработчик API. snapshots может быть nil.
func NewHandler(loaderSvc *loader.Service, progressSvc *progress.Service, adminSvc *admin.Service, snapshots domain.SnapshotRepo, log zerolog.Logger) *Handler {
	return &Handler{loader: loaderSvc, progress: progressSvc, admin: adminSvc, snapshots: snapshots, log: log}
}

// Mount регистрирует маршруты API.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/content", h.getContent)
		r.Get("/content/items/{id}", h.getItem)
		r.Get("/content/tracks/{id}", h.getTrack)

		r.Get("/progress", h.getProgress)
		r.Post("/progress/missions/{id}/complete", h.completeMission)
		r.Post("/progress/lessons/{id}/study", h.studyLesson)
		r.Get("/progress/recap/{day}", h.getRecap)
		r.Post("/progress/reset", h.reset)

		r.Get("/profile", h.getProfile)
		r.Put("/profile", h.putProfile)
		r.Get("/library/search", h.getLibrarySearch)
		r.Put("/library/search", h.putLibrarySearch)

		r.Get("/admin/draft", h.getDraft)
		r.Post("/admin/draft", h.postDraft)
		r.Delete("/admin/draft", h.deleteDraft)
		r.Get("/admin/export", h.getExport)
		r.Post("/admin/import", h.postImport)
		r.Get("/admin/snapshots", h.getSnapshots)
	})
}

func installID(r *http.Request) string {
	if id := r.Header.Get(installHeader); id != "" {
		return id
	}
	return "default"
}

// getContent отдаёт разрешённый каталог. degraded=true сигнализирует
// интерфейсу показать баннер с путём в админ-импорт.
func (h *Handler) getContent(w http.ResponseWriter, r *http.Request) {
	cat, source := h.loader.Resolve(r.Context(), installID(r))
	writeJSON(w, http.StatusOK, map[string]any{
		"source":   source,
		"degraded": source == domain.SourceFallback,
		"tracks":   itemsOrEmpty(cat.Tracks),
		"lessons":  itemsOrEmpty(cat.Lessons),
		"missions": itemsOrEmpty(cat.Missions),
		"library":  itemsOrEmpty(cat.Library),
	})
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	cat, _ := h.loader.Resolve(r.Context(), installID(r))
	item, ok := cat.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "item não encontrado")
		return
	}
	resp := map[string]any{"item": item}
	if r.URL.Query().Get("format") == "html" {
		resp["html"] = markdown.Render(item.Text)
	}
	writeJSON(w, http.StatusOK, resp)
}

// getTrack отдаёт дорожку с её уроками и прогрессом. Висячие ссылки
// не блокируют ответ, а перечисляются в warnings.
func (h *Handler) getTrack(w http.ResponseWriter, r *http.Request) {
	inst := installID(r)
	cat, _ := h.loader.Resolve(r.Context(), inst)
	track, ok := cat.Get(chi.URLParam(r, "id"))
	if !ok || track.Type != domain.TypeTrack {
		writeError(w, http.StatusNotFound, "trilha não encontrada")
		return
	}
	lessons, missing := cat.TrackLessons(track)
	tp, err := h.progress.TrackProgress(r.Context(), inst, track)
	if err != nil {
		h.log.Error().Err(err).Str("track", track.ID).Msg("api: чтение прогресса трилхи не удалось")
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"track":    track,
		"lessons":  itemsOrEmpty(lessons),
		"missing":  missing,
		"progress": tp,
	})
}

func (h *Handler) getProgress(w http.ResponseWriter, r *http.Request) {
	inst := installID(r)
	xp, err := h.progress.XP(r.Context(), inst)
	if err != nil {
		h.log.Error().Err(err).Msg("api: чтение XP не удалось")
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	profile, err := h.progress.Profile(r.Context(), inst)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"xp":      xp,
		"level":   progress.ExperienceToLevel(xp),
		"profile": profile,
	})
}

func (h *Handler) completeMission(w http.ResponseWriter, r *http.Request) {
	inst := installID(r)
	id := chi.URLParam(r, "id")
	cat, _ := h.loader.Resolve(r.Context(), inst)
	item, ok := cat.Get(id)
	if !ok || item.Type != domain.TypeMission {
		writeError(w, http.StatusNotFound, "missão não encontrada")
		return
	}
	result, err := h.progress.CompleteMission(r.Context(), inst, id, int(item.XP))
	if err != nil {
		h.log.Error().Err(err).Str("mission", id).Msg("api: завершение миссии не удалось")
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	h.writeAwardResult(w, r, inst, result)
}

func (h *Handler) studyLesson(w http.ResponseWriter, r *http.Request) {
	inst := installID(r)
	id := chi.URLParam(r, "id")
	cat, _ := h.loader.Resolve(r.Context(), inst)
	item, ok := cat.Get(id)
	if !ok || item.Type != domain.TypeLesson {
		writeError(w, http.StatusNotFound, "lição não encontrada")
		return
	}
	result, err := h.progress.StudyLesson(r.Context(), inst, id, 0)
	if err != nil {
		h.log.Error().Err(err).Str("lesson", id).Msg("api: отметка урока не удалась")
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	h.writeAwardResult(w, r, inst, result)
}

func (h *Handler) writeAwardResult(w http.ResponseWriter, r *http.Request, inst string, result progress.Result) {
	xp, err := h.progress.XP(r.Context(), inst)
	if err != nil {
		h.log.Error().Err(err).Msg("api: чтение XP не удалось")
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result": result,
		"xp":     xp,
		"level":  progress.ExperienceToLevel(xp),
	})
}

func (h *Handler) getRecap(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeError(w, http.StatusNotFound, "recaps indisponíveis")
		return
	}
	recap, err := h.snapshots.GetRecap(r.Context(), installID(r), chi.URLParam(r, "day"))
	if err != nil {
		writeError(w, http.StatusNotFound, "sem atividade nesse dia")
		return
	}
	writeJSON(w, http.StatusOK, recap)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.progress.Reset(r.Context(), installID(r)); err != nil {
		h.log.Error().Err(err).Msg("api: сброс установки не удался")
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.progress.Profile(r.Context(), installID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) putProfile(w http.ResponseWriter, r *http.Request) {
	var profile domain.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "corpo inválido")
		return
	}
	if err := h.progress.SaveProfile(r.Context(), installID(r), profile); err != nil {
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	saved, err := h.progress.Profile(r.Context(), installID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) getLibrarySearch(w http.ResponseWriter, r *http.Request) {
	text, err := h.progress.LibrarySearch(r.Context(), installID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (h *Handler) putLibrarySearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "corpo inválido")
		return
	}
	if err := h.progress.SaveLibrarySearch(r.Context(), installID(r), body.Text); err != nil {
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.admin.Draft(r.Context(), installID(r))
	if err != nil {
		h.log.Error().Err(err).Msg("api: чтение черновика не удалось")
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	writeJSON(w, http.StatusOK, itemsOrEmpty(draft))
}

func (h *Handler) postDraft(w http.ResponseWriter, r *http.Request) {
	var item domain.ContentItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "corpo inválido")
		return
	}
	inst := installID(r)
	validationErrs, err := h.admin.AddDraftItem(r.Context(), inst, item)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	if len(validationErrs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": validationErrs})
		return
	}
	draft, err := h.admin.Draft(r.Context(), inst)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	writeJSON(w, http.StatusCreated, itemsOrEmpty(draft))
}

func (h *Handler) deleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.ClearDraft(r.Context(), installID(r)); err != nil {
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getExport(w http.ResponseWriter, r *http.Request) {
	inst := installID(r)
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = admin.ModeDraft
	}
	cat, _ := h.loader.Resolve(r.Context(), inst)
	out, err := h.admin.BuildExport(r.Context(), inst, mode, cat.Items())
	if err != nil {
		if errors.Is(err, admin.ErrUnknownMode) {
			writeError(w, http.StatusBadRequest, "modo de exportação desconhecido")
			return
		}
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if mode == admin.ModeAppend {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	_, _ = w.Write([]byte(out))
}

// postImport принимает сырой вставленный текст. Некорректный JSON
// прерывает импорт целиком без побочных эффектов; текст остаётся у
// клиента для исправления.
func (h *Handler) postImport(w http.ResponseWriter, r *http.Request) {
	inst := installID(r)
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxImportBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "corpo inválido")
		return
	}
	cat, _ := h.loader.Resolve(r.Context(), inst)
	merged, report, err := h.admin.ImportMerge(r.Context(), inst, string(raw), cat.Items())
	if err != nil {
		switch {
		case errors.Is(err, admin.ErrInvalidJSON):
			writeError(w, http.StatusBadRequest, "JSON inválido — nada foi importado")
		case errors.Is(err, admin.ErrNotArray):
			writeError(w, http.StatusBadRequest, "esperava um array JSON — nada foi importado")
		default:
			h.log.Error().Err(err).Msg("api: импорт не удался")
			writeError(w, http.StatusInternalServerError, "erro interno")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"report": report,
		"total":  len(merged),
	})
}

func (h *Handler) getSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	snaps, err := h.snapshots.ListSnapshots(r.Context(), installID(r), 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	type snapshotView struct {
		ID        int64               `json:"id"`
		ItemCount int                 `json:"itemCount"`
		Report    domain.ImportReport `json:"report"`
		CreatedAt string              `json:"createdAt"`
	}
	views := make([]snapshotView, 0, len(snaps))
	for _, snap := range snaps {
		views = append(views, snapshotView{
			ID:        snap.ID,
			ItemCount: snap.ItemCount,
			Report:    snap.Report,
			CreatedAt: snap.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func itemsOrEmpty(items []domain.ContentItem) []domain.ContentItem {
	if items == nil {
		return []domain.ContentItem{}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
