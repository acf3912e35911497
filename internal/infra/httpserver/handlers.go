package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"

	apphw "github.com/bryanwahyu/clarify/internal/application/homework"
	"github.com/bryanwahyu/clarify/internal/domain/conversation"
	"github.com/bryanwahyu/clarify/internal/domain/homework"
	"github.com/bryanwahyu/clarify/internal/middleware"
)

// audioWaitLimit caps ?wait=true on the audio endpoints.
const audioWaitLimit = 60 * time.Second

type analyzeRequest struct {
	Text           string `json:"text"`
	Image          string `json:"image"`
	MIMEType       string `json:"mime_type"`
	TargetLanguage string `json:"target_language"`
	GradeLevel     string `json:"grade_level"`
	HintsMode      bool   `json:"hints_mode"`
}

type analyzeResponse struct {
	SessionID string          `json:"session_id"`
	Result    homework.Result `json:"result"`
}

func (r *Router) toRequest(body analyzeRequest) (homework.Request, error) {
	lang, err := middleware.ValidateLanguage(body.TargetLanguage)
	if err != nil {
		return homework.Request{}, badRequest(err)
	}
	if err := middleware.ValidateGradeLevel(body.GradeLevel); err != nil {
		return homework.Request{}, badRequest(err)
	}
	text, err := middleware.ValidateText(body.Text)
	if err != nil {
		return homework.Request{}, badRequest(err)
	}

	req := homework.Request{
		Text:           text,
		TargetLanguage: lang,
		GradeLevel:     body.GradeLevel,
		HintsMode:      body.HintsMode,
	}
	if body.Image != "" {
		data, hint, err := decodeImage(body.Image)
		if err != nil {
			return homework.Request{}, badRequest(err)
		}
		declared := lo.Ternary(body.MIMEType != "", body.MIMEType, hint)
		mime, err := middleware.ValidateImage(data, declared, r.maxImageBytes)
		if err != nil {
			return homework.Request{}, badRequest(err)
		}
		req.Image = &homework.Image{Data: data, MIMEType: mime}
	}
	return req, req.Validate()
}

// POST /v1/homework/analyze
// The result is written and flushed first; persistence and speech run afterwards in the session.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	ownerID, err := owner(req)
	if err != nil {
		return err
	}
	// base64 is 4/3 of the image plus the JSON envelope
	req.Body = http.MaxBytesReader(w, req.Body, r.maxImageBytes*4/3+(64<<10))

	var body analyzeRequest
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	hwReq, err := r.toRequest(body)
	if err != nil {
		return err
	}

	r.metrics.IncrementAnalyses()
	sess := r.svc.NewSession(ownerID)
	res, err := sess.Submit(req.Context(), hwReq)
	if err != nil {
		r.metrics.IncrementAnalysesFailed()
		sess.Close()
		return err
	}
	r.sessions.Put(sess)

	writeJSON(w, http.StatusOK, analyzeResponse{SessionID: sess.ID, Result: res})
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	if err := sess.Finalize(); err != nil {
		r.log.Warn("finalize skipped", zap.String("session", sess.ID), zap.Error(err))
	}
	return nil
}

// GET /v1/sessions/{id}
func (r *Router) handleSession(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.session(req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
	return nil
}

// DELETE /v1/sessions/{id}
func (r *Router) handleCloseSession(w http.ResponseWriter, req *http.Request) error {
	ownerID, err := owner(req)
	if err != nil {
		return err
	}
	if err := r.sessions.Remove(ownerID, chi.URLParam(req, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/sessions/{id}/audio?wait=true
func (r *Router) handleSessionAudio(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.session(req)
	if err != nil {
		return err
	}
	audio, ok := sess.ExplanationAudio()
	if !ok && wantWait(req) {
		ctx, cancel := context.WithTimeout(req.Context(), audioWaitLimit)
		defer cancel()
		audio, err = sess.AwaitAudio(ctx)
		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		case err != nil:
			return err
		default:
			ok = true
		}
	}
	if !ok {
		return &httpError{status: http.StatusNotFound, msg: "audio not ready"}
	}
	writeAudio(w, audio)
	return nil
}

// GET /v1/sessions/{id}/answer-audio
func (r *Router) handleAnswerAudio(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.session(req)
	if err != nil {
		return err
	}
	audio, ok := sess.AnswerAudio()
	if !ok {
		return &httpError{status: http.StatusNotFound, msg: "audio not ready"}
	}
	writeAudio(w, audio)
	return nil
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer     string              `json:"answer"`
	Transcript []conversation.Turn `json:"transcript,omitempty"`
}

// POST /v1/sessions/{id}/ask
func (r *Router) handleSessionAsk(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.session(req)
	if err != nil {
		return err
	}
	var body askRequest
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	q, err := middleware.ValidateQuestion(body.Question)
	if err != nil {
		return badRequest(err)
	}

	r.metrics.IncrementFollowUps()
	answer, err := sess.Ask(req.Context(), q)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: answer, Transcript: sess.Snapshot().Transcript})
	return nil
}

type statelessAskRequest struct {
	Question         string `json:"question"`
	PriorExplanation string `json:"prior_explanation"`
	TargetLanguage   string `json:"target_language"`
}

// POST /v1/ask
func (r *Router) handleAsk(w http.ResponseWriter, req *http.Request) error {
	var body statelessAskRequest
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	q, err := middleware.ValidateQuestion(body.Question)
	if err != nil {
		return badRequest(err)
	}
	lang, err := middleware.ValidateLanguage(body.TargetLanguage)
	if err != nil {
		return badRequest(err)
	}

	r.metrics.IncrementFollowUps()
	answer, err := r.svc.Ask(req.Context(), q, body.PriorExplanation, lang)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
	return nil
}

type speechRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

// POST /v1/speech
func (r *Router) handleSpeech(w http.ResponseWriter, req *http.Request) error {
	var body speechRequest
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	lang, err := middleware.ValidateLanguage(body.TargetLanguage)
	if err != nil {
		return badRequest(err)
	}
	audio, err := r.svc.Speak(req.Context(), middleware.SanitizeString(body.Text), lang)
	if err != nil {
		return err
	}
	writeAudio(w, audio)
	return nil
}

// GET /v1/homework
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	ownerID, err := owner(req)
	if err != nil {
		return err
	}
	list, err := r.svc.List(req.Context(), ownerID)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*homework.Record{}
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

// GET /v1/homework/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	ownerID, err := owner(req)
	if err != nil {
		return err
	}
	rec, err := r.svc.Get(req.Context(), ownerID, homework.RecordID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, rec)
	return nil
}

// GET /v1/homework/{id}/conversation
func (r *Router) handleConversation(w http.ResponseWriter, req *http.Request) error {
	ownerID, err := owner(req)
	if err != nil {
		return err
	}
	conv, err := r.svc.Conversation(req.Context(), ownerID, homework.RecordID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, conv)
	return nil
}

// DELETE /v1/homework/{id}
func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) error {
	ownerID, err := owner(req)
	if err != nil {
		return err
	}
	if err := r.svc.Delete(req.Context(), ownerID, homework.RecordID(chi.URLParam(req, "id"))); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// DELETE /v1/homework
func (r *Router) handleDeleteAll(w http.ResponseWriter, req *http.Request) error {
	ownerID, err := owner(req)
	if err != nil {
		return err
	}
	if err := r.svc.DeleteAll(req.Context(), ownerID); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/languages
func (r *Router) handleLanguages(w http.ResponseWriter, req *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]any{
		"languages":    homework.Languages(),
		"grade_levels": homework.GradeLevels,
	})
	return nil
}

func (r *Router) session(req *http.Request) (*apphw.Session, error) {
	ownerID, err := owner(req)
	if err != nil {
		return nil, err
	}
	return r.sessions.Get(ownerID, chi.URLParam(req, "id"))
}

func wantWait(req *http.Request) bool {
	v, _ := strconv.ParseBool(req.URL.Query().Get("wait"))
	return v
}

func writeAudio(w http.ResponseWriter, audio []byte) {
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}
