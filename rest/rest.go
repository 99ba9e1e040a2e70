package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"holdem.com/server/game"
	"holdem.com/server/logging"
)

var restLogger = logging.GetZeroLogger("rest::rest", nil)

//
// APP error definition
//
type appError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Class   string `json:"class"`
}

type seatRequest struct {
	Seat *int `json:"seat"`
}

type handlers struct {
	manager *game.Manager
}

func RunRestServer(manager *game.Manager, portNo int, timeoutsPerSec int) error {
	r := NewRouter(manager, timeoutsPerSec)
	restLogger.Info().Msgf("REST server listening on port %d", portNo)
	return r.Run(fmt.Sprintf(":%d", portNo))
}

// NewRouter wires the engine operations to HTTP routes. The timeout routes are
// open to anyone, so they share a token bucket of timeoutsPerSec requests per second.
func NewRouter(manager *game.Manager, timeoutsPerSec int) *gin.Engine {
	h := &handlers{manager: manager}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ready", checkReady)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/tables", h.createTable)
	r.GET("/tables/:id", h.getTable)
	r.POST("/tables/:id/hands", h.startHand)

	r.GET("/hands/:id", h.getHand)
	r.GET("/hands/:id/result", h.getResult)
	r.POST("/hands/:id/deal", h.deal)
	r.POST("/hands/:id/actions", h.act)
	r.POST("/hands/:id/reveal", h.reveal)
	r.POST("/hands/:id/settle", h.settle)

	timeouts := r.Group("/hands/:id/timeouts", rateLimit(timeoutsPerSec))
	timeouts.POST("/action", h.actionTimeout)
	timeouts.POST("/reveal", h.revealTimeout)
	return r
}

func rateLimit(perSec int) gin.HandlerFunc {
	if perSec <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := rate.NewLimiter(rate.Limit(perSec), perSec)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, appError{
				Code:    http.StatusTooManyRequests,
				Message: "Too many timeout requests",
				Class:   "ratelimit",
			})
			return
		}
		c.Next()
	}
}

func checkReady(c *gin.Context) {
	type resp struct {
		Status string `json:"status"`
	}
	c.JSON(http.StatusOK, resp{Status: "OK"})
}

func statusFor(err error) (int, string) {
	switch {
	case game.IsStateViolation(err):
		return http.StatusConflict, "state"
	case game.IsBettingRule(err):
		return http.StatusUnprocessableEntity, "betting"
	case game.IsCapacity(err):
		return http.StatusInternalServerError, "capacity"
	case game.IsTimeoutNotElapsed(err):
		return http.StatusTooEarly, "timeout"
	case game.IsNotYetRevealed(err):
		return http.StatusConflict, "reveal"
	case game.IsNotFound(err):
		return http.StatusNotFound, "notfound"
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(c *gin.Context, err error) {
	code, class := statusFor(err)
	if code == http.StatusInternalServerError {
		restLogger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	c.JSON(code, appError{Code: code, Message: err.Error(), Class: class})
}

func badRequest(c *gin.Context, format string, args ...interface{}) {
	c.JSON(http.StatusBadRequest, appError{
		Code:    http.StatusBadRequest,
		Message: fmt.Sprintf(format, args...),
		Class:   "request",
	})
}

func (h *handlers) createTable(c *gin.Context) {
	var config game.TableConfig
	if err := c.ShouldBindJSON(&config); err != nil {
		restLogger.Error().Msgf("Failed to parse table configuration. Error: %v", err)
		badRequest(c, "Failed to parse table configuration: %v", err)
		return
	}
	table, seats, err := h.manager.CreateTable(config)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"table": table, "seats": seats})
}

func (h *handlers) getTable(c *gin.Context) {
	table, seats, err := h.manager.GetTable(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	lastHand, _ := h.manager.LastHand(table.ID)
	c.JSON(http.StatusOK, gin.H{"table": table, "seats": seats, "lastHandId": lastHand})
}

func (h *handlers) startHand(c *gin.Context) {
	snapshot, err := h.manager.StartHand(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *handlers) getHand(c *gin.Context) {
	snapshot, err := h.manager.GetHand(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *handlers) getResult(c *gin.Context) {
	result, err := h.manager.GetResult(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// deal takes the cards from the body, an empty body shuffles a fresh deck.
func (h *handlers) deal(c *gin.Context) {
	var deal *game.Deal
	if c.Request.ContentLength != 0 {
		deal = &game.Deal{}
		if err := c.ShouldBindJSON(deal); err != nil {
			badRequest(c, "Failed to parse deal: %v", err)
			return
		}
	}
	snapshot, err := h.manager.Deal(c.Param("id"), deal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *handlers) act(c *gin.Context) {
	var action game.Action
	if err := c.ShouldBindJSON(&action); err != nil {
		badRequest(c, "Failed to parse action: %v", err)
		return
	}
	snapshot, err := h.manager.Act(c.Param("id"), action)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func bindSeat(c *gin.Context) (int, bool) {
	if seatStr := c.Query("seat"); seatStr != "" {
		seat, err := strconv.Atoi(seatStr)
		if err != nil {
			badRequest(c, "Failed to parse seat [%s]", seatStr)
			return 0, false
		}
		return seat, true
	}
	var req seatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Seat == nil {
		badRequest(c, "Request does not name a seat")
		return 0, false
	}
	return *req.Seat, true
}

func (h *handlers) reveal(c *gin.Context) {
	seat, ok := bindSeat(c)
	if !ok {
		return
	}
	snapshot, err := h.manager.Reveal(c.Param("id"), seat)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *handlers) settle(c *gin.Context) {
	snapshot, err := h.manager.Settle(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *handlers) actionTimeout(c *gin.Context) {
	seat, ok := bindSeat(c)
	if !ok {
		return
	}
	restLogger.Info().Str(logging.HandIDKey, c.Param("id")).Int(logging.SeatNumKey, seat).Msg("Action timeout requested")
	snapshot, err := h.manager.ForceActionTimeout(c.Param("id"), seat)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *handlers) revealTimeout(c *gin.Context) {
	seat, ok := bindSeat(c)
	if !ok {
		return
	}
	restLogger.Info().Str(logging.HandIDKey, c.Param("id")).Int(logging.SeatNumKey, seat).Msg("Reveal timeout requested")
	snapshot, err := h.manager.ForceRevealTimeout(c.Param("id"), seat)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
