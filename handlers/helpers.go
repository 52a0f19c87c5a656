package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Dosada05/matchday/repositories"
	"github.com/Dosada05/matchday/services"
	"github.com/Dosada05/matchday/session"
)

type jsonResponse map[string]interface{}

type contextKey string

const loggerContextKey contextKey = "logger"

// WithLogger attaches a request scoped logger used by the error responses.
func WithLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := logger.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
			})
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), loggerContextKey, entry)))
		})
	}
}

func loggerFrom(r *http.Request) logrus.FieldLogger {
	if l, ok := r.Context().Value(loggerContextKey).(logrus.FieldLogger); ok {
		return l
	}
	return logrus.StandardLogger()
}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		loggerFrom(r).WithError(err).Error("Failed to write error response")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	loggerFrom(r).WithError(err).Error("Internal server error")
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

// mapServiceErrorToHTTP turns service, repository and session errors into
// HTTP responses.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var transitionErr *services.TransitionError

	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, repositories.ErrMatchNotFound),
		errors.Is(err, repositories.ErrClubNotFound),
		errors.Is(err, repositories.ErrSeasonNotFound),
		errors.Is(err, repositories.ErrCompetitionNotFound),
		errors.Is(err, repositories.ErrSaveNotFound),
		errors.Is(err, repositories.ErrGameClockNotFound),
		errors.Is(err, session.ErrSaveFileEmpty):
		notFoundResponse(w, r)

	case errors.Is(err, session.ErrNoSaveLoaded),
		errors.Is(err, services.ErrDayAdvanceInProgress),
		errors.Is(err, services.ErrSeasonAlreadyFinished),
		errors.Is(err, services.ErrSeasonNotOver),
		errors.Is(err, services.ErrMatchAlreadyPlayed),
		errors.Is(err, services.ErrNoActiveSeason):
		conflictResponse(w, r, err.Error())

	case errors.Is(err, services.ErrInvalidSeasonDates),
		errors.Is(err, session.ErrSaveAmbiguous),
		errors.Is(err, session.ErrWorldNotSeeded):
		badRequestResponse(w, r, err)

	case errors.As(err, &transitionErr):
		loggerFrom(r).WithError(err).WithFields(logrus.Fields{
			"season_id": transitionErr.SeasonID,
			"step":      transitionErr.Step,
		}).Error("Season transition rolled back")
		errorResponse(w, r, http.StatusInternalServerError, jsonResponse{
			"message": "season transition failed and was rolled back",
			"step":    transitionErr.Step,
		})

	default:
		serverErrorResponse(w, r, err)
	}
}

func getIDFromURL(r *http.Request, paramName string) (int64, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}

	if id <= 0 {
		return 0, fmt.Errorf("invalid %s value: must be positive", paramName)
	}

	return id, nil
}
