package handlers

import (
	"github.com/labstack/echo/v4"

	"bid-coordinator/internal/services"
)

type JsonResponseStatus string

const (
	JsonResponseStatusSuccess JsonResponseStatus = "success"
	JsonResponseStatusFail    JsonResponseStatus = "fail"
)

type JsonResponse struct {
	Data   interface{}        `json:"data"`
	Status JsonResponseStatus `json:"status"`
}

func makeJsonResp(c echo.Context, status int, data interface{}) error {
	if status >= 400 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusFail})
	}
	return c.JSON(status, JsonResponse{data, JsonResponseStatusSuccess})
}

// makeErrorResp renders err through the error handling service.
func makeErrorResp(c echo.Context, errs *services.ErrorHandlingService, err error) error {
	report := errs.Handle(err)
	return makeJsonResp(c, report.HTTPStatus, report)
}
