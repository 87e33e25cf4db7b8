package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

const taskBodyMaxSize = 64 * 1024 // 64 KiB

// messageResponse is the wire shape for confirmations and errors.
type messageResponse struct {
	Message string `json:"message"`
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store TaskStore, logger *log.Logger) {
	e.GET("/api/tasks", getTasks(store, logger))
	e.GET("/api/tasks/:id", getTask(store))
	e.POST("/api/tasks", postTask(store), GzipRequestMiddleware())
	e.PUT("/api/tasks/:id", putTask(store), GzipRequestMiddleware())
	e.DELETE("/api/tasks/:id", deleteTask(store))
	e.GET("/healthz", healthz(store))
}

func healthz(store TaskStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.Ping(c.Request().Context()); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "database": "connected"})
	}
}

// filterFromQuery picks the recognized filter params off the request. Anything
// else in the query string is ignored.
func filterFromQuery(c echo.Context) domain.Filter {
	return domain.Filter{
		Status:     c.QueryParam("status"),
		Priority:   c.QueryParam("priority"),
		Category:   c.QueryParam("category"),
		Search:     c.QueryParam("search"),
		DateFilter: c.QueryParam("dateFilter"),
	}
}

func getTasks(store TaskStore, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		filter := filterFromQuery(c)
		metrics := newListRequestMetrics(logger, filter)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		fetchStart := time.Now()
		tasks, fetchErr := store.List(ctx, filter)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.JSON(http.StatusInternalServerError, messageResponse{Message: "storage unavailable"})
			return err
		}
		metrics.SetTasksReturned(len(tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasks)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getTask(store TaskStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := store.Get(c.Request().Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return c.JSON(http.StatusNotFound, messageResponse{Message: "task not found"})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, messageResponse{Message: "storage unavailable"})
		}
		return c.JSON(http.StatusOK, task)
	}
}

func postTask(store TaskStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		lr := io.LimitReader(c.Request().Body, taskBodyMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)

		var in domain.TaskInput
		if err := dec.Decode(&in); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}
		task, err := domain.NewTask(in, time.Now().UTC())
		if err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
		}
		created, err := store.Create(c.Request().Context(), task)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, messageResponse{Message: "storage unavailable"})
		}
		return c.JSON(http.StatusCreated, created)
	}
}

func putTask(store TaskStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := io.ReadAll(io.LimitReader(c.Request().Body, taskBodyMaxSize))
		if err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}
		patch, err := domain.ParsePatch(body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
		}
		updated, err := store.Update(c.Request().Context(), c.Param("id"), patch)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				return c.JSON(http.StatusNotFound, messageResponse{Message: "task not found"})
			case domain.IsValidation(err):
				return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
			default:
				c.Logger().Error(err)
				return c.JSON(http.StatusInternalServerError, messageResponse{Message: "storage unavailable"})
			}
		}
		return c.JSON(http.StatusOK, updated)
	}
}

func deleteTask(store TaskStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.Delete(c.Request().Context(), c.Param("id")); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return c.JSON(http.StatusNotFound, messageResponse{Message: "task not found"})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, messageResponse{Message: "storage unavailable"})
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "task deleted successfully"})
	}
}
