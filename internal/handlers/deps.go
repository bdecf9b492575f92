package handlers

import (
	"log/slog"

	"github.com/GregMSThompson/finboard/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	DashboardSvc    dashboardService
	WidgetDataSvc   widgetDataService
}
