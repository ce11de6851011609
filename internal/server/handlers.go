package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/social-listening/mentions-dashboard/internal/analytics"
	"github.com/social-listening/mentions-dashboard/internal/chat"
	"github.com/social-listening/mentions-dashboard/internal/dashboard"
	"github.com/social-listening/mentions-dashboard/internal/ingest"
	"github.com/social-listening/mentions-dashboard/internal/models"
	"github.com/social-listening/mentions-dashboard/internal/reporting"
	"github.com/social-listening/mentions-dashboard/internal/sources"
)

const (
	defaultInfluencerLimit = 10
	defaultTopMentions     = 10
	topSentimentMentions   = 5
	timelineDays           = 30
	uploadMemory           = 32 << 20
)

var errBadRequest = errors.New("bad request")

type ErrorResponse struct {
	Error string `json:"error"`
}

type valueRequest struct {
	Value string `json:"value"`
}

type viewRequest struct {
	View dashboard.View `json:"view"`
}

type questionRequest struct {
	Question string `json:"question"`
}

type reportRequest struct {
	Period string `json:"period"`
}

type mentionsResponse struct {
	Total    int              `json:"total"`
	Mentions []models.Mention `json:"mentions"`
}

type audienceResponse struct {
	SpeakerTypes    []models.SpeakerTypeStat `json:"speakerTypes"`
	ContentTypes    []models.ContentTypeStat `json:"contentTypes"`
	EngagementStats models.EngagementStats   `json:"engagementStats"`
}

type sentimentResponse struct {
	Distribution []models.SentimentSlice         `json:"distribution"`
	ByChannel    []models.ChannelSentimentStat   `json:"byChannel"`
	Timeline     []models.SentimentTimelinePoint `json:"timeline"`
	TopPositive  []models.Mention                `json:"topPositive"`
	TopNegative  []models.Mention                `json:"topNegative"`
}

type performanceResponse struct {
	Channels        []models.ChannelStat     `json:"channels"`
	ContentTypes    []models.ContentTypeStat `json:"contentTypes"`
	Interactions    models.InteractionTotals `json:"interactions"`
	EngagementStats models.EngagementStats   `json:"engagementStats"`
	TopMentions     []models.Mention         `json:"topMentions"`
}

type loadResponse struct {
	Source   string             `json:"source"`
	Snapshot dashboard.Snapshot `json:"snapshot"`
}

type reportResponse struct {
	Name   string         `json:"name,omitempty"`
	Report *models.Report `json:"report"`
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, s.deps.Loader.Metrics())
	}
}

func (s *Server) getDashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, s.deps.Dashboard.Snapshot())
	}
}

func (s *Server) getMentions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryLimit(r, 0)
		if err != nil {
			respondWithErr(w, err)
			return
		}
		filtered := s.deps.Dashboard.Filtered()
		resp := mentionsResponse{Total: len(filtered), Mentions: filtered}
		if limit > 0 && limit < len(filtered) {
			resp.Mentions = filtered[:limit]
		}
		respondWithJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) getKPIs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, s.deps.Dashboard.KPIs())
	}
}

func (s *Server) getCharts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, s.deps.Dashboard.Charts())
	}
}

func (s *Server) getInfluencers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryLimit(r, defaultInfluencerLimit)
		if err != nil {
			respondWithErr(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, s.deps.Dashboard.Influencers(limit))
	}
}

func (s *Server) getAudience() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filtered := s.deps.Dashboard.Filtered()
		respondWithJSON(w, http.StatusOK, audienceResponse{
			SpeakerTypes:    analytics.SpeakerTypeBreakdown(filtered),
			ContentTypes:    analytics.ContentTypePerformance(filtered),
			EngagementStats: analytics.ComputeEngagementStats(filtered),
		})
	}
}

func (s *Server) getSentiment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filtered := s.deps.Dashboard.Filtered()
		respondWithJSON(w, http.StatusOK, sentimentResponse{
			Distribution: analytics.SentimentDistribution(filtered),
			ByChannel:    analytics.ChannelSentiment(filtered),
			Timeline:     analytics.SentimentTimeline(filtered, timelineDays),
			TopPositive:  analytics.TopMentionsBySentiment(filtered, models.SentimentPositive, topSentimentMentions),
			TopNegative:  analytics.TopMentionsBySentiment(filtered, models.SentimentNegative, topSentimentMentions),
		})
	}
}

func (s *Server) getPerformance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryLimit(r, defaultTopMentions)
		if err != nil {
			respondWithErr(w, err)
			return
		}
		filtered := s.deps.Dashboard.Filtered()
		channels := analytics.ChannelPerformance(filtered)
		sort.SliceStable(channels, func(i, j int) bool {
			return channels[i].TotalEngagement > channels[j].TotalEngagement
		})
		respondWithJSON(w, http.StatusOK, performanceResponse{
			Channels:        channels,
			ContentTypes:    analytics.ContentTypePerformance(filtered),
			Interactions:    analytics.InteractionTotals(filtered),
			EngagementStats: analytics.ComputeEngagementStats(filtered),
			TopMentions:     analytics.TopMentions(filtered, limit),
		})
	}
}

func (s *Server) getFilters() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, s.deps.Dashboard.Filters())
	}
}

func (s *Server) patchFilters() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch models.FilterPatch
		if err := decodeBody(r, &patch); err != nil {
			respondWithErr(w, err)
			return
		}
		s.deps.Dashboard.SetFilters(patch)
		respondWithJSON(w, http.StatusOK, s.deps.Dashboard.Snapshot())
	}
}

func (s *Server) clearFilters() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.deps.Dashboard.ClearFilters()
		respondWithJSON(w, http.StatusOK, s.deps.Dashboard.Snapshot())
	}
}

func (s *Server) addFilterValue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req valueRequest
		if err := decodeBody(r, &req); err != nil {
			respondWithErr(w, err)
			return
		}
		if req.Value == "" {
			respondWithErr(w, fmt.Errorf("%w: value is required", errBadRequest))
			return
		}
		dim := models.Dimension(mux.Vars(r)["dimension"])
		if err := s.deps.Dashboard.AddFilterValue(dim, req.Value); err != nil {
			respondWithErr(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, s.deps.Dashboard.Snapshot())
	}
}

func (s *Server) removeFilterValue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		if err := s.deps.Dashboard.RemoveFilterValue(models.Dimension(vars["dimension"]), vars["value"]); err != nil {
			respondWithErr(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, s.deps.Dashboard.Snapshot())
	}
}

func (s *Server) putView() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req viewRequest
		if err := decodeBody(r, &req); err != nil {
			respondWithErr(w, err)
			return
		}
		if !req.View.Valid() {
			respondWithErr(w, fmt.Errorf("%w: unknown view %q", errBadRequest, req.View))
			return
		}
		s.deps.Dashboard.SetView(req.View)
		respondWithJSON(w, http.StatusOK, s.deps.Dashboard.Snapshot())
	}
}

func (s *Server) loadSample() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.load(w, r, s.deps.Sample)
	}
}

func (s *Server) loadSheet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Sheet == nil {
			respondWithErr(w, fmt.Errorf("google-sheet: %w", ingest.ErrSourceDisabled))
			return
		}
		s.load(w, r, s.deps.Sheet)
	}
}

func (s *Server) uploadFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, int64(s.config.MaxUploadMB)<<20)
		if err := r.ParseMultipartForm(uploadMemory); err != nil {
			respondWithErr(w, fmt.Errorf("%w: %w", errBadRequest, err))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			respondWithErr(w, fmt.Errorf("%w: multipart field \"file\" is required", errBadRequest))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			respondWithErr(w, fmt.Errorf("failed to read upload: %w", err))
			return
		}

		s.load(w, r, sources.NewFileSource(header.Filename, data, s.deps.Normalizer))
	}
}

func (s *Server) load(w http.ResponseWriter, r *http.Request, src sources.Source) {
	if err := s.deps.Loader.Load(r.Context(), src); err != nil {
		respondWithErr(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, loadResponse{
		Source:   src.GetName(),
		Snapshot: s.deps.Dashboard.Snapshot(),
	})
}

func (s *Server) getChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, s.deps.Chat.State())
	}
}

func (s *Server) postChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req questionRequest
		if err := decodeBody(r, &req); err != nil {
			respondWithErr(w, err)
			return
		}

		selection := s.deps.Dashboard.Selection()
		dashCtx := chat.BuildContext(req.Question, selection.Records, selection.Filters, string(selection.View))
		if _, err := s.deps.Chat.Send(r.Context(), req.Question, &dashCtx); err != nil {
			respondWithErr(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, s.deps.Chat.State())
	}
}

func (s *Server) clearChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.deps.Chat.Clear()
		respondWithJSON(w, http.StatusOK, s.deps.Chat.State())
	}
}

func (s *Server) patchChatSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch chat.SettingsPatch
		if err := decodeBody(r, &patch); err != nil {
			respondWithErr(w, err)
			return
		}
		if _, err := s.deps.Chat.UpdateSettings(patch); err != nil {
			respondWithErr(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, s.deps.Chat.State())
	}
}

func (s *Server) listReports() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := s.deps.Reports.List(r.Context())
		if err != nil {
			respondWithErr(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string][]string{"reports": names})
	}
}

func (s *Server) createReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reportRequest
		if r.ContentLength != 0 {
			if err := decodeBody(r, &req); err != nil {
				respondWithErr(w, err)
				return
			}
		}
		report, name, err := s.deps.Reports.Publish(r.Context(), req.Period)
		if err != nil {
			respondWithErr(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, reportResponse{Name: name, Report: report})
	}
}

func (s *Server) getReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		report, err := s.deps.Reports.Retrieve(r.Context(), name)
		if err != nil {
			respondWithErr(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, reportResponse{Name: name, Report: report})
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

func queryLimit(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", errBadRequest)
	}
	return limit, nil
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, reporting.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrMissingAPIKey),
		errors.Is(err, ingest.ErrSourceDisabled):
		return http.StatusPreconditionFailed
	case errors.Is(err, errBadRequest),
		errors.Is(err, dashboard.ErrNotSetDimension),
		errors.Is(err, sources.ErrNoDataRows),
		errors.Is(err, sources.ErrMissingColumns),
		errors.Is(err, sources.ErrUnsupportedFormat),
		errors.Is(err, chat.ErrInvalidSettings),
		errors.Is(err, chat.ErrEmptyQuestion):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondWithErr(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logrus.Errorf("Request failed: %v", err)
	}
	respondWithError(w, code, err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
		code = http.StatusInternalServerError
		response = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}
