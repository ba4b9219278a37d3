package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alextanhongpin/shopobs/http/handler"
	"github.com/alextanhongpin/shopobs/http/request"
	"github.com/alextanhongpin/shopobs/internal/downstream"
)

const (
	ioTaskDelay    = time.Second
	cpuTaskRounds  = 1000
	maxRandomSleep = 5
)

var randomStatuses = []int{
	http.StatusOK,
	http.StatusOK,
	http.StatusMultipleChoices,
	http.StatusBadRequest,
	http.StatusInternalServerError,
}

// DemoController serves the endpoints used to generate sample traffic for
// the dashboards.
type DemoController struct {
	handler.BaseHandler
	client *downstream.Client
	chain  []string
	sleep  func(ctx context.Context, d time.Duration) error
	intN   func(n int) int
}

type pathResponse struct {
	Path string `json:"path"`
}

func (c *DemoController) Root(w http.ResponseWriter, r *http.Request) {
	c.Logger().InfoContext(r.Context(), "hello world")
	c.JSON(w, map[string]string{"Hello": "World"}, http.StatusOK)
}

type itemResponse struct {
	ItemID int     `json:"item_id"`
	Q      *string `json:"q"`
}

func (c *DemoController) Item(w http.ResponseWriter, r *http.Request) {
	id, err := request.PathValue(r, "item_id").Int("item_id")
	if err != nil {
		c.Next(w, r, err)
		return
	}

	c.Logger().InfoContext(r.Context(), "items", slog.Int("item_id", id))
	c.JSON(w, itemResponse{
		ItemID: id,
		Q:      request.QueryValue(r, "q").Ptr(),
	}, http.StatusOK)
}

func (c *DemoController) IOTask(w http.ResponseWriter, r *http.Request) {
	if err := c.sleep(r.Context(), ioTaskDelay); err != nil {
		c.Next(w, r, err)
		return
	}

	c.Logger().InfoContext(r.Context(), "io task")
	c.Text(w, "IO bound task finish!", http.StatusOK)
}

func (c *DemoController) CPUTask(w http.ResponseWriter, r *http.Request) {
	var sum int
	for i := range cpuTaskRounds {
		sum += i * i * i
	}

	c.Logger().InfoContext(r.Context(), "cpu task", slog.Int("sum", sum))
	c.Text(w, "CPU bound task finish!", http.StatusOK)
}

func (c *DemoController) RandomStatus(w http.ResponseWriter, r *http.Request) {
	code := randomStatuses[c.intN(len(randomStatuses))]

	c.Logger().InfoContext(r.Context(), "random status", slog.Int("code", code))
	c.JSON(w, pathResponse{Path: "/random_status"}, code)
}

func (c *DemoController) RandomSleep(w http.ResponseWriter, r *http.Request) {
	d := time.Duration(c.intN(maxRandomSleep+1)) * time.Second
	if err := c.sleep(r.Context(), d); err != nil {
		c.Next(w, r, err)
		return
	}

	c.Logger().InfoContext(r.Context(), "random sleep", slog.Duration("duration", d))
	c.JSON(w, pathResponse{Path: "/random_sleep"}, http.StatusOK)
}

// ErrorTest panics so that the recovery and exception metrics can be
// observed.
func (c *DemoController) ErrorTest(w http.ResponseWriter, r *http.Request) {
	c.Logger().ErrorContext(r.Context(), "got error")
	panic(errors.New("value error"))
}

// Chain calls each configured URL in order with the trace context
// propagated, producing a single trace across services.
func (c *DemoController) Chain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	for _, url := range c.chain {
		code, err := c.client.Get(ctx, url)
		if err != nil {
			c.Next(w, r, err)
			return
		}

		c.Logger().DebugContext(ctx, "chain call", slog.String("url", url), slog.Int("code", code))
	}

	c.Logger().InfoContext(ctx, "chain finished")
	c.JSON(w, pathResponse{Path: "/chain"}, http.StatusOK)
}
