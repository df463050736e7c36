package automation

import (
	"errors"

	"github.com/go-drift/e2e/pkg/app"
)

// alertError maps alert presenter errors to WebDriver errors.
func alertError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, app.ErrNoAlert):
		return ErrNoSuchAlert
	case errors.Is(err, app.ErrNoAlertButton):
		return ErrInvalidElementState.with("%v", err)
	case errors.Is(err, app.ErrNoAlertTextBox):
		return ErrNotInteractable.with("The alert has no text field")
	}
	return err
}

func (s *Server) alertText(r *request) (any, error) {
	var text string
	err := s.ui(r.Context(), func() error {
		a := s.app.Alert()
		if a == nil {
			return ErrNoSuchAlert
		}
		text = a.Text()
		return nil
	})
	return text, err
}

func (s *Server) setAlertText(r *request) (any, error) {
	text, err := r.text()
	if err != nil {
		return nil, err
	}
	return nil, s.ui(r.Context(), func() error {
		return alertError(s.app.SetAlertText(text))
	})
}

func (s *Server) acceptAlert(r *request) (any, error) {
	name, err := r.str("name")
	if err != nil {
		return nil, err
	}
	return nil, s.ui(r.Context(), func() error {
		return alertError(s.app.AcceptAlert(name))
	})
}

func (s *Server) dismissAlert(r *request) (any, error) {
	name, err := r.str("name")
	if err != nil {
		return nil, err
	}
	return nil, s.ui(r.Context(), func() error {
		return alertError(s.app.DismissAlert(name))
	})
}

func (s *Server) alertButtons(r *request) (any, error) {
	var labels []string
	err := s.ui(r.Context(), func() error {
		a := s.app.Alert()
		if a == nil {
			return ErrNoSuchAlert
		}
		labels = a.ButtonLabels()
		return nil
	})
	return labels, err
}
