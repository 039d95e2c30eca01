package handlers

import (
	"fmt"
	"log"
	"strings"
	"time"

	"reportdeck/cache"
	"reportdeck/config"
	"reportdeck/db"
	"reportdeck/models"
	"reportdeck/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// @title           Reportdeck Analytics API
// @version         1.0
// @description     Role-scoped reporting backend: saved SQL reports, dashboards, KPIs, data export and spreadsheet comparison.

// @host      localhost:9090
// @BasePath  /

// @schemes   http https

// RoleHeader carries the acting principal's role set, resolved by the
// upstream authentication layer.
const RoleHeader = "X-User-Role"

const adminRole = "ADMIN"

// failureWindow / failureThreshold drive the expiring per-query failure
// counters; repeat failures are logged for operators.
const (
	failureWindow    = 15 * time.Minute
	failureThreshold = 3
)

type Handlers struct {
	store      *db.DB
	data       *service.DataService
	comparator *service.Comparator
	results    *service.ResultsStorage
	appCache   *cache.Cache
	sqlService *service.SQLServerService
	cfg        config.Config

	// workers bounds CPU-heavy compare/export work so it cannot starve
	// request handling.
	workers *semaphore.Weighted
}

func New(store *db.DB, data *service.DataService, comparator *service.Comparator, results *service.ResultsStorage, appCache *cache.Cache, sqlService *service.SQLServerService, cfg config.Config) *Handlers {
	return &Handlers{
		store:      store,
		data:       data,
		comparator: comparator,
		results:    results,
		appCache:   appCache,
		sqlService: sqlService,
		cfg:        cfg,
		workers:    semaphore.NewWeighted(cfg.MaxWorkers),
	}
}

func callerRole(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(RoleHeader))
}

func parseRoles(roleField string) map[string]bool {
	roles := make(map[string]bool)
	for _, r := range strings.Split(roleField, ",") {
		if trimmed := strings.ToUpper(strings.TrimSpace(r)); trimmed != "" {
			roles[trimmed] = true
		}
	}
	return roles
}

func isAdmin(role string) bool {
	return parseRoles(role)[adminRole]
}

// roleAllowed decides whether a caller's role set admits a record's
// assigned role set. Admins see everything; an empty assignment means no
// restriction.
func roleAllowed(assigned, userRole string) bool {
	if isAdmin(userRole) {
		return true
	}
	assignedSet := parseRoles(assigned)
	if len(assignedSet) == 0 {
		return true
	}
	for r := range parseRoles(userRole) {
		if assignedSet[r] {
			return true
		}
	}
	return false
}

// resolveQuery loads a saved query and enforces its role set against the
// caller. Returns (nil, handled=true) when a response has been written.
func (h *Handlers) resolveQuery(c *gin.Context, queryID int) (*models.Query, bool) {
	queryObj, err := h.store.GetQuery(queryID)
	if err != nil {
		log.Printf("Error loading query %d: %v", queryID, err)
		c.JSON(500, gin.H{"error": "Failed to load query"})
		return nil, true
	}
	if queryObj == nil {
		c.JSON(404, gin.H{"error": "Query not found"})
		return nil, true
	}
	if !roleAllowed(queryObj.Role, callerRole(c)) {
		log.Printf("Authorization denied for query %d: role %q not in assigned roles %q",
			queryID, callerRole(c), queryObj.Role)
		c.JSON(403, gin.H{"error": "Not authorized for this query"})
		return nil, true
	}
	return queryObj, false
}

// trackOutcome maintains the expiring failure counter for a query. Repeat
// failures within the window are surfaced in the server log.
func (h *Handlers) trackOutcome(queryID int, rawSQL string, result *models.QueryResult) {
	key := fmt.Sprintf("query_failures:%d", queryID)
	if queryID == 0 {
		key = "query_failures:adhoc"
	}

	if result.Success {
		h.appCache.ResetCounter(key)
		return
	}

	count := h.appCache.IncrementCounter(key, failureWindow)
	if count >= failureThreshold {
		log.Printf("Query keeps failing (%d failures in window): query_id=%d sql=%.120q error=%q",
			count, queryID, rawSQL, result.Error)
	}
}
