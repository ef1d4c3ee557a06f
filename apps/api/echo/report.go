package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"net/mail"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ebdapp/ebd/core"
	"github.com/ebdapp/ebd/core/class"
	"github.com/ebdapp/ebd/core/report"
	"github.com/ebdapp/ebd/core/user"
)

type reportApi struct {
	classSvc *class.Service
	usrSvc   *user.Service
	mailSvc  core.EmailService
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, classSvc *class.Service, usrSvc *user.Service, mailSvc core.EmailService) {
	api := reportApi{classSvc: classSvc, usrSvc: usrSvc, mailSvc: mailSvc}

	// per-class report, gated like the class itself
	g.GET("/classes/:id/report", api.classReport, jwt, classAccessMiddleware(usrSvc))

	// secretary-wide reports
	rg := g.Group("/reports", jwt, secretaryMiddleware())
	rg.GET("", api.summary)
	rg.GET("/export", api.export)
	rg.POST("/email", api.email)
	rg.GET("/birthdays", api.birthdays)
}

func (api *reportApi) classReport(ctx echo.Context) error {
	c, err := api.classSvc.GetByID(ctx.Param("id"))
	if err != nil {
		return classErr(err, "finding class by ID")
	}
	return ctx.JSON(http.StatusOK, report.ForClass(c))
}

func (api *reportApi) summary(ctx echo.Context) error {
	classes, err := api.classSvc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, report.Summarize(classes))
}

// export streams the attendance workbook as an .xlsx download.
func (api *reportApi) export(ctx echo.Context) error {
	classes, err := api.classSvc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, classes); err != nil {
		return errors.Wrap(err, "writing workbook")
	}

	filename := fmt.Sprintf("attendance_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename=`+filename)
	return ctx.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// email sends the attendance workbook to the session's email address.
func (api *reportApi) email(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "account has no email address")
	}

	classes, err := api.classSvc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, classes); err != nil {
		return errors.Wrap(err, "writing workbook")
	}

	filename := fmt.Sprintf("attendance_%s.xlsx", time.Now().Format("2006-01-02"))
	msg := &core.EmailMessage{
		To:          []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:     "Attendance Report",
		TextContent: "The attendance report you requested is attached.",
	}
	if err := msg.Attach(&buf, filename,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"); err != nil {
		return errors.Wrap(err, "attaching workbook")
	}
	api.mailSvc.SendMessages(msg)

	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "The report is on its way to " + usr.Email + "."})
}

// birthdays lists members with a birthday in the given month (current
// month when the param is absent).
func (api *reportApi) birthdays(ctx echo.Context) error {
	month := time.Now().Month()
	if raw := ctx.QueryParam("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			return echo.NewHTTPError(http.StatusBadRequest, "month must be between 1 and 12")
		}
		month = time.Month(m)
	}

	classes, err := api.classSvc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, report.BirthdaysOfMonth(classes, month))
}
