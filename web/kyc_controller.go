package web

import (
	"github.com/gofiber/fiber/v2"
	portal "github.com/istokvel/go-portal"
)

// KYCShow renders the wizard. Pending, approved, and rejected submissions
// render read-only; a rejected one also shows the reason.
func (s *Server) KYCShow(c *fiber.Ctx) error {
	state, err := s.kyc.Status(c.UserContext())
	if err != nil {
		return err
	}

	return c.Render("kyc", s.viewContext(fiber.Map{
		"state":            state,
		"editable":         state.Status.Editable(),
		"provinces":        portal.Provinces,
		"employment_types": portal.EmploymentTypes,
	}))
}

// KYCSectionPost saves one wizard section into the draft.
func (s *Server) KYCSectionPost(c *fiber.Ctx) error {
	section := c.Params("section")

	state, err := s.kyc.Status(c.UserContext())
	if err != nil {
		return err
	}

	payload, err := kycSectionPayload(c, section)
	if err != nil {
		return err
	}
	if v, ok := payload.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return s.renderKYCError(c, state, err.Error())
		}
	}

	if err := s.kyc.UpdateSection(c.UserContext(), state, section, payload); err != nil {
		return s.renderKYCError(c, state, portal.MessageFromError(err, "Unable to save section"))
	}

	return c.Redirect("/kyc")
}

// KYCSubmitPost moves the draft to pending review.
func (s *Server) KYCSubmitPost(c *fiber.Ctx) error {
	if err := s.kyc.Submit(c.UserContext()); err != nil {
		state, stateErr := s.kyc.Status(c.UserContext())
		if stateErr != nil {
			return stateErr
		}
		return s.renderKYCError(c, state, portal.MessageFromError(err, "Unable to submit"))
	}
	return c.Redirect("/kyc")
}

func (s *Server) renderKYCError(c *fiber.Ctx, state *portal.KYCState, message string) error {
	return c.Render("kyc", s.viewContext(fiber.Map{
		"state":            state,
		"editable":         state.Status.Editable(),
		"provinces":        portal.Provinces,
		"employment_types": portal.EmploymentTypes,
		"error":            message,
	}))
}

func kycSectionPayload(c *fiber.Ctx, section string) (any, error) {
	switch section {
	case portal.KYCSectionPersonal:
		var p portal.KYCPersonalPayload
		err := c.BodyParser(&p)
		return p, err
	case portal.KYCSectionAddress:
		var p portal.KYCAddressPayload
		err := c.BodyParser(&p)
		return p, err
	case portal.KYCSectionIncome:
		var p portal.KYCIncomePayload
		err := c.BodyParser(&p)
		return p, err
	case portal.KYCSectionBank:
		var p portal.KYCBankPayload
		err := c.BodyParser(&p)
		return p, err
	default:
		// documents and unknown sections pass through as raw form values;
		// the service rejects unknown section names
		return formMap(c), nil
	}
}

func formMap(c *fiber.Ctx) map[string]string {
	out := map[string]string{}
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for key, vals := range form.Value {
			if len(vals) > 0 {
				out[key] = vals[0]
			}
		}
		return out
	}
	args := c.Context().PostArgs()
	args.VisitAll(func(key, value []byte) {
		out[string(key)] = string(value)
	})
	return out
}
