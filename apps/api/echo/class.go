package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ebdapp/ebd/core/class"
	"github.com/ebdapp/ebd/core/user"
)

type classApi struct {
	svc    *class.Service
	usrSvc *user.Service
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *class.Service, usrSvc *user.Service) {
	api := classApi{svc: svc, usrSvc: usrSvc}

	cg := g.Group("/classes", jwt)

	// collection endpoints; creation is secretary work
	cg.GET("", api.query)
	cg.POST("", api.create, secretaryMiddleware())

	// detail endpoints, gated per class. Routes on the detail path must be
	// registered through dg: the group's catch-all would shadow them on cg.
	dg := cg.Group("/:id", classAccessMiddleware(usrSvc))
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy, secretaryMiddleware())
	dg.PUT("/teacher", api.assignTeacher)

	dg.POST("/members", api.addMember)
	dg.DELETE("/members/:memberID", api.removeMember)
	dg.PUT("/members/:memberID/attendance", api.markAttendance)
	dg.PUT("/members/:memberID/birthday", api.setBirthday)

	dg.POST("/visitors", api.addVisitor)
	dg.DELETE("/visitors/:visitorID", api.removeVisitor)

	dg.POST("/announcements", api.addAnnouncement)
	dg.DELETE("/announcements/:announcementID", api.removeAnnouncement)
}

// Handlers

// query lists the classes the session may work on: all of them for a
// secretary, assigned ones for a teacher.
func (api *classApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var classes []class.Class
	if claims.IsSecretary {
		classes, err = api.svc.QueryAll()
	} else {
		var usr user.User
		if usr, err = getContextUser(ctx, api.usrSvc, claims); err != nil {
			return errors.Wrap(err, "getting context user")
		}
		classes, err = api.svc.QueryByID(usr.AssignedClassIDs...)
	}
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []class.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) create(ctx echo.Context) error {
	var data class.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	c, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return classErr(err, "finding class by ID")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classApi) destroy(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return classErr(err, "finding class by ID")
	}

	if err := api.svc.Delete(c.ID); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) assignTeacher(ctx echo.Context) error {
	var data class.TeacherAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherAssignment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	c, err := api.svc.AssignTeacher(ctx.Param("id"), data)
	if err != nil {
		return classErr(err, "assigning teacher")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classApi) addMember(ctx echo.Context) error {
	var data class.NewMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMember")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	c, err := api.svc.AddMember(ctx.Param("id"), data)
	if err != nil {
		return classErr(err, "adding member")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *classApi) removeMember(ctx echo.Context) error {
	c, err := api.svc.RemoveMember(ctx.Param("id"), ctx.Param("memberID"))
	if err != nil {
		return classErr(err, "removing member")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classApi) markAttendance(ctx echo.Context) error {
	var data class.AttendanceUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AttendanceUpdate")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	c, err := api.svc.MarkAttendance(ctx.Param("id"), ctx.Param("memberID"), data)
	if err != nil {
		return classErr(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classApi) setBirthday(ctx echo.Context) error {
	var data class.MemberBirthdayUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MemberBirthdayUpdate")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	c, err := api.svc.SetMemberBirthday(ctx.Param("id"), ctx.Param("memberID"), data)
	if err != nil {
		return classErr(err, "setting member birthday")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classApi) addVisitor(ctx echo.Context) error {
	var data class.NewVisitor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVisitor")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	c, err := api.svc.AddVisitor(ctx.Param("id"), data)
	if err != nil {
		return classErr(err, "adding visitor")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *classApi) removeVisitor(ctx echo.Context) error {
	c, err := api.svc.RemoveVisitor(ctx.Param("id"), ctx.Param("visitorID"))
	if err != nil {
		return classErr(err, "removing visitor")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classApi) addAnnouncement(ctx echo.Context) error {
	var data class.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	c, err := api.svc.AddAnnouncement(ctx.Param("id"), data)
	if err != nil {
		return classErr(err, "adding announcement")
	}
	return ctx.JSON(http.StatusCreated, c)
}

// removeAnnouncement deletes by id and succeeds even when the id is gone
// already; concurrent deletes must not remove a neighbour.
func (api *classApi) removeAnnouncement(ctx echo.Context) error {
	c, err := api.svc.RemoveAnnouncement(ctx.Param("id"), ctx.Param("announcementID"))
	if err != nil {
		return classErr(err, "removing announcement")
	}
	return ctx.JSON(http.StatusOK, c)
}

// classErr maps domain not-found errors to 404s.
func classErr(err error, msg string) error {
	switch errors.Cause(err) {
	case class.ErrNotFound, class.ErrMemberNotFound, class.ErrVisitorNotFound:
		return errHttpNotFound
	}
	return errors.Wrap(err, msg)
}
