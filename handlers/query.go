package handlers

import (
	"net/http"

	"reportdeck/models"

	"github.com/gin-gonic/gin"
)

// ExecuteQueryHandler runs a saved query or raw SQL through the pipeline
// @Summary      Execute a query
// @Description  Execute a saved query (by id, honoring its chart type) or raw SQL as a paginated table
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        X-User-Role  header    string                     false  "Caller role set (comma-joined)"
// @Param        request      body      models.QueryExecuteRequest true   "Execution request"
// @Success      200          {object}  models.QueryResult         "Query outcome (success or sanitized failure)"
// @Failure      400          {object}  map[string]string          "Invalid request"
// @Failure      403          {object}  map[string]string          "Role not authorized"
// @Failure      404          {object}  map[string]string          "Query not found"
// @Router       /api/query/execute [post]
func (h *Handlers) ExecuteQueryHandler(c *gin.Context) {
	var req models.QueryExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx := c.Request.Context()

	var result *models.QueryResult
	switch {
	case req.QueryID != 0:
		queryObj, handled := h.resolveQuery(c, req.QueryID)
		if handled {
			return
		}
		if queryObj.ChartType != "" && queryObj.ChartType != "table" {
			result = h.data.ExecuteQueryForChart(ctx, queryObj.SQLQuery, queryObj.ChartType, queryObj.ChartConfig)
		} else {
			result = h.data.ExecuteQueryForTable(ctx, queryObj.SQLQuery, req.Limit, req.Offset)
		}
		h.trackOutcome(req.QueryID, queryObj.SQLQuery, result)

	case req.SQLQuery != "":
		result = h.data.ExecuteQueryForTable(ctx, req.SQLQuery, req.Limit, req.Offset)
		h.trackOutcome(0, req.SQLQuery, result)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either query_id or sql_query must be provided"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// FilteredQueryHandler runs a query with structured filters and sorting
// @Summary      Execute a filtered query
// @Description  Execute a saved query or raw SQL with structured filter conditions, sorting and pagination
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        X-User-Role  header    string                      false  "Caller role set (comma-joined)"
// @Param        request      body      models.FilteredQueryRequest true   "Filtered execution request"
// @Success      200          {object}  models.QueryResult          "Query outcome (success or sanitized failure)"
// @Failure      400          {object}  map[string]string           "Invalid request"
// @Failure      403          {object}  map[string]string           "Role not authorized"
// @Failure      404          {object}  map[string]string           "Query not found"
// @Router       /api/query/filtered [post]
func (h *Handlers) FilteredQueryHandler(c *gin.Context) {
	var req models.FilteredQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	baseSQL := req.SQLQuery
	queryID := 0
	if req.QueryID != 0 {
		queryObj, handled := h.resolveQuery(c, req.QueryID)
		if handled {
			return
		}
		baseSQL = queryObj.SQLQuery
		queryID = queryObj.ID
	}
	if baseSQL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either query_id or sql_query must be provided"})
		return
	}

	result := h.data.ExecuteFilteredQuery(c.Request.Context(), baseSQL, &req)
	h.trackOutcome(queryID, baseSQL, result)

	c.JSON(http.StatusOK, result)
}

// GetQueryHandler returns saved query metadata
// @Summary      Get saved query metadata
// @Description  Return a saved query definition when the caller's role admits it
// @Tags         Query
// @Produce      json
// @Param        X-User-Role  header    string  false  "Caller role set (comma-joined)"
// @Param        id           path      int     true   "Query id"
// @Success      200          {object}  models.Query
// @Failure      403          {object}  map[string]string  "Role not authorized"
// @Failure      404          {object}  map[string]string  "Query not found"
// @Router       /api/query/{id} [get]
func (h *Handlers) GetQueryHandler(c *gin.Context) {
	var uri struct {
		ID int `uri:"id" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query id"})
		return
	}

	queryObj, handled := h.resolveQuery(c, uri.ID)
	if handled {
		return
	}

	c.JSON(http.StatusOK, queryObj)
}

// ListReportsByMenuHandler lists the reports attached to a menu item
// @Summary      List reports for a menu item
// @Description  Return the active saved queries attached to a menu item, filtered to the caller's role
// @Tags         Query
// @Produce      json
// @Param        X-User-Role  header    string  false  "Caller role set (comma-joined)"
// @Param        id           path      int     true   "Menu item id"
// @Success      200          {array}   models.Query
// @Failure      500          {object}  map[string]string  "Failed to load reports"
// @Router       /api/reports/menu/{id} [get]
func (h *Handlers) ListReportsByMenuHandler(c *gin.Context) {
	var uri struct {
		ID int `uri:"id" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu item id"})
		return
	}

	queries, err := h.store.ListQueriesByMenu(uri.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reports"})
		return
	}

	role := callerRole(c)
	visible := make([]models.Query, 0, len(queries))
	for _, q := range queries {
		if roleAllowed(q.Role, role) {
			visible = append(visible, q)
		}
	}

	c.JSON(http.StatusOK, visible)
}
