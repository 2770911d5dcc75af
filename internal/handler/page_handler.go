package handler

import (
	"fmt"
	"html"
	"net/http"

	"github.com/labstack/echo/v4"

	"comunidad/internal/guard"
)

// PageHandler serves the public screens. Markup is deliberately minimal:
// presentation is out of scope, these pages exist so the guarded routes
// have something to land on.
type PageHandler struct{}

// NewPageHandler creates a new page handler.
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Home serves the landing page.
func (h *PageHandler) Home(c echo.Context) error {
	return page(c, "Comunidad", `<p><a href="/login">Iniciar sesión</a> · <a href="/register">Registrarse</a></p>`)
}

// Login serves the login form. When the guard bounced the visitor here, the
// redirect marker adds a notice.
func (h *PageHandler) Login(c echo.Context) error {
	notice := ""
	if c.QueryParam(guard.RedirectedParam) == "true" {
		notice = `<p class="notice">Inicia sesión para continuar.</p>`
	}
	body := notice + form("/login", `
		<input type="email" name="email" placeholder="Email" required>
		<input type="password" name="password" placeholder="Contraseña" required>`,
		"Entrar") + `<p><a href="/forgot-password">¿Olvidaste tu contraseña?</a></p>`
	return page(c, "Iniciar sesión", body)
}

// Register serves the registration form.
func (h *PageHandler) Register(c echo.Context) error {
	body := form("/register", `
		<input type="text" name="nombre" placeholder="Nombre" required>
		<input type="email" name="email" placeholder="Email" required>
		<input type="password" name="password" placeholder="Contraseña" required>
		<input type="password" name="confirm_password" placeholder="Repite la contraseña" required>
		<label><input type="checkbox" name="gdpr_accept" value="true"> Acepto la <a href="/privacy-policy">política de privacidad</a></label>`,
		"Crear cuenta")
	return page(c, "Registro", body)
}

// ForgotPassword serves the recovery-email form.
func (h *PageHandler) ForgotPassword(c echo.Context) error {
	body := form("/forgot-password", `<input type="email" name="email" placeholder="Email" required>`, "Enviar instrucciones")
	return page(c, "Recuperar contraseña", body)
}

// ResetPassword serves the recovery-completion form. The recovery token
// arrives on the emailed link.
func (h *PageHandler) ResetPassword(c echo.Context) error {
	token := html.EscapeString(c.QueryParam("token"))
	body := form("/reset-password", fmt.Sprintf(`
		<input type="hidden" name="token" value="%s">
		<input type="password" name="password" placeholder="Nueva contraseña" required>
		<input type="password" name="confirm_password" placeholder="Repite la contraseña" required>`, token),
		"Guardar contraseña")
	return page(c, "Restablecer contraseña", body)
}

// ChangePassword serves the change-password form (guarded route).
func (h *PageHandler) ChangePassword(c echo.Context) error {
	body := form("/change-password", `
		<input type="password" name="current_password" placeholder="Contraseña actual" required>
		<input type="password" name="new_password" placeholder="Nueva contraseña" required>
		<input type="password" name="confirm_password" placeholder="Repite la nueva contraseña" required>`,
		"Cambiar contraseña")
	return page(c, "Cambiar contraseña", body)
}

// PrivacyPolicy serves the static legal page.
func (h *PageHandler) PrivacyPolicy(c echo.Context) error {
	return page(c, "Política de privacidad", "<p>Política de privacidad.</p>")
}

// TermsAndConditions serves the static legal page.
func (h *PageHandler) TermsAndConditions(c echo.Context) error {
	return page(c, "Términos y condiciones", "<p>Términos y condiciones.</p>")
}

func page(c echo.Context, title, body string) error {
	return c.HTML(http.StatusOK, fmt.Sprintf(
		`<!doctype html><html lang="es"><head><meta charset="utf-8"><title>%s</title></head><body><h1>%s</h1>%s</body></html>`,
		title, title, body))
}

func form(action, fields, submit string) string {
	return fmt.Sprintf(`<form method="post" action="%s">%s<button type="submit">%s</button></form>`, action, fields, submit)
}
