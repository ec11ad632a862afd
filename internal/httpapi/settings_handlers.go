package httpapi

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const maxSettingValueChars = 4096

func (s *Server) handleGetSettings(c echo.Context) error {
	settings, err := s.pool.GetSettings(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("load settings failed")
		return internalError(c, "Failed to load settings")
	}
	return success(c, map[string]any{"settings": settings})
}

func (s *Server) handlePutSettings(c echo.Context) error {
	var req map[string]string
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if len(req) == 0 {
		return failValidation(c, map[string]string{"body": "at least one setting is required"})
	}

	for key, value := range req {
		if strings.TrimSpace(key) == "" {
			return failValidation(c, map[string]string{"key": "must not be blank"})
		}
		if len(value) > maxSettingValueChars {
			return failValidation(c, map[string]string{key: "value is too long"})
		}
	}

	ctx := c.Request().Context()
	for key, value := range req {
		if err := s.pool.SetSetting(ctx, strings.TrimSpace(key), value); err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("save setting failed")
			return internalError(c, "Failed to save settings")
		}
	}

	settings, err := s.pool.GetSettings(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("load settings failed")
		return internalError(c, "Failed to load settings")
	}
	return success(c, map[string]any{"settings": settings})
}
