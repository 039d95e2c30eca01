package handlers

import (
	"fmt"
	"net/http"

	"reportdeck/models"

	"github.com/gin-gonic/gin"
)

// MenuHandler returns the caller's navigation tree
// @Summary      Get menu structure
// @Description  Return the active menu tree filtered to the caller's role, children nested under parents
// @Tags         Dashboard
// @Produce      json
// @Param        X-User-Role  header    string  false  "Caller role set (comma-joined)"
// @Success      200          {array}   models.MenuItem
// @Failure      500          {object}  map[string]string  "Failed to load menu"
// @Router       /api/menu [get]
func (h *Handlers) MenuHandler(c *gin.Context) {
	items, err := h.store.ListMenuItems()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load menu structure"})
		return
	}

	role := callerRole(c)

	visible := make(map[int]*models.MenuItem)
	var ordered []*models.MenuItem
	for i := range items {
		item := items[i]
		if !roleAllowed(item.Role, role) {
			continue
		}
		item.Children = []*models.MenuItem{}
		visible[item.ID] = &item
		ordered = append(ordered, &item)
	}

	// Children whose parent was filtered out are dropped rather than
	// promoted to roots.
	roots := make([]*models.MenuItem, 0, len(ordered))
	for _, item := range ordered {
		if item.ParentID == 0 {
			roots = append(roots, item)
			continue
		}
		if parent, ok := visible[item.ParentID]; ok {
			parent.Children = append(parent.Children, item)
		}
	}

	c.JSON(http.StatusOK, roots)
}

// DashboardWidgetsHandler returns the dashboard layout
// @Summary      Get dashboard widgets
// @Description  Return active dashboard widgets with their queries, filtered to the caller's role
// @Tags         Dashboard
// @Produce      json
// @Param        X-User-Role  header    string  false  "Caller role set (comma-joined)"
// @Success      200          {array}   models.DashboardWidget
// @Failure      500          {object}  map[string]string  "Failed to load widgets"
// @Router       /api/dashboard/widgets [get]
func (h *Handlers) DashboardWidgetsHandler(c *gin.Context) {
	widgets, err := h.store.ListWidgets()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard layout"})
		return
	}

	role := callerRole(c)

	visible := make([]models.DashboardWidget, 0, len(widgets))
	for _, w := range widgets {
		queryObj, err := h.store.GetQuery(w.QueryID)
		if err != nil || queryObj == nil {
			continue
		}
		if !roleAllowed(queryObj.Role, role) {
			continue
		}
		// Widgets carry rendering metadata only; the SQL itself stays
		// server-side.
		w.Query = &models.Query{
			ID:          queryObj.ID,
			Name:        queryObj.Name,
			ChartType:   queryObj.ChartType,
			ChartConfig: queryObj.ChartConfig,
			MenuItemID:  queryObj.MenuItemID,
			Role:        queryObj.Role,
			IsActive:    queryObj.IsActive,
		}
		if w.Query.ChartType == "" {
			w.Query.ChartType = "bar"
		}
		visible = append(visible, w)
	}

	c.JSON(http.StatusOK, visible)
}

// KPIHandler evaluates the caller's KPIs
// @Summary      Get KPI values
// @Description  Evaluate every active KPI query the caller's role admits; each value is the first cell of the first row, non-numeric coerced to zero
// @Tags         Dashboard
// @Produce      json
// @Param        X-User-Role  header    string  false  "Caller role set (comma-joined)"
// @Success      200          {array}   models.KPI
// @Failure      500          {object}  map[string]string  "Failed to load KPIs"
// @Router       /api/dashboard/kpis [get]
func (h *Handlers) KPIHandler(c *gin.Context) {
	queries, err := h.store.ListQueries()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load KPIs"})
		return
	}

	role := callerRole(c)
	ctx := c.Request.Context()

	kpis := make([]models.KPI, 0)
	for _, q := range queries {
		if !q.IsKPI || !roleAllowed(q.Role, role) {
			continue
		}

		cacheKey := fmt.Sprintf("kpi:%d", q.ID)
		value, hit := 0.0, false
		if cached, found := h.appCache.Get(cacheKey); found {
			value, hit = cached.(float64)
		}
		if !hit {
			value = h.data.EvaluateKPI(ctx, q.SQLQuery)
			h.appCache.SetDefault(cacheKey, value)
		}

		kpis = append(kpis, models.KPI{ID: q.ID, Label: q.Name, Value: value})
	}

	c.JSON(http.StatusOK, kpis)
}
