package web

import (
	"github.com/gofiber/fiber/v2"
	portal "github.com/istokvel/go-portal"
)

// Dashboard renders the member home with the freshest notification snapshot
// the poller has cached.
func (s *Server) Dashboard(c *fiber.Ctx) error {
	return c.Render("dashboard", s.viewContext(fiber.Map{
		"notifications": s.notifications.Notifications(),
		"unread_count":  s.notifications.UnreadCount(),
	}))
}

// ProfileShow fetches the authoritative profile and renders the edit form.
func (s *Server) ProfileShow(c *fiber.Ctx) error {
	user, err := s.profile.Get(c.UserContext())
	if err != nil {
		if portal.IsAuthRevokedError(err) {
			return err
		}
		// fall back to the cached record when the backend is unreachable
		s.logger.Warn("profile fetch failed, rendering cached record", "error", err)
		cached, _ := s.session.CurrentUser()
		user = cached
	}

	return c.Render("profile", s.viewContext(fiber.Map{
		"profile": user,
	}))
}

// ProfilePost saves profile edits.
func (s *Server) ProfilePost(c *fiber.Ctx) error {
	var payload portal.ProfileUpdatePayload
	if err := c.BodyParser(&payload); err != nil {
		return err
	}

	user, err := s.profile.Update(c.UserContext(), payload)
	if err != nil {
		cached, _ := s.session.CurrentUser()
		return c.Render("profile", s.viewContext(fiber.Map{
			"profile": cached,
			"record":  payload,
			"error":   portal.MessageFromError(err, "Unable to save profile"),
		}))
	}

	return c.Render("profile", s.viewContext(fiber.Map{
		"profile": user,
		"message": "Profile updated",
	}))
}

// NotificationsList serves the cached notification list as JSON for the
// header dropdown; the poller keeps the cache fresh.
func (s *Server) NotificationsList(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"notifications": s.notifications.Notifications(),
		"new_arrivals":  s.notifications.NewArrivals(),
		"unread_count":  s.notifications.UnreadCount(),
	})
}

// NotificationsMarkRead flips the submitted ids optimistically.
func (s *Server) NotificationsMarkRead(c *fiber.Ctx) error {
	var payload struct {
		IDs []int64 `json:"notification_ids" form:"notification_ids"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return err
	}

	s.notifications.MarkAsRead(c.UserContext(), payload.IDs...)
	return c.JSON(fiber.Map{
		"unread_count": s.notifications.UnreadCount(),
	})
}

// NotificationsMarkAllRead marks everything read and returns the refetched
// list.
func (s *Server) NotificationsMarkAllRead(c *fiber.Ctx) error {
	if err := s.notifications.MarkAllAsRead(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"notifications": s.notifications.Notifications(),
		"unread_count":  s.notifications.UnreadCount(),
	})
}
