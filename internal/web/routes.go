package web

// Route templates. Handlers read {id} and {token} with mux.Vars.
const (
	PathHome     = "/"
	PathCategory = "/categorias/{id:[0-9]+}"
	PathSearch   = "/buscador"
	PathNotFound = "/404"
	PathDetail   = "/propiedad/{id:[0-9]+}"
	PathCatalog  = "/api/propiedades"
	PathHealth   = "/health"
	PathMetrics  = "/metrics"

	PathAdmin      = "/mis-propiedades"
	PathCreate     = "/propiedades/crear"
	PathAttach     = "/propiedades/agregar-imagen/{id:[0-9]+}"
	PathEdit       = "/propiedades/editar/{id:[0-9]+}"
	PathDelete     = "/propiedades/eliminar/{id:[0-9]+}"
	PathToggle     = "/propiedades/{id:[0-9]+}"
	PathMessages   = "/mensajes/{id:[0-9]+}"
	PathAccount    = "/cuenta"
	PathKeyDelete  = "/cuenta/passkeys/eliminar"
	PathRegister   = "/auth/registro"
	PathConfirm    = "/auth/confirmar/{token}"
	PathLogin      = "/auth/login"
	PathLogout     = "/auth/cerrar-sesion"
	PathForgot     = "/auth/olvide-password"
	PathKeyRegBeg  = "/passkey/registro/inicio"
	PathKeyRegEnd  = "/passkey/registro/fin"
	PathKeyAuthBeg = "/passkey/login/inicio"
	PathKeyAuthEnd = "/passkey/login/fin"
)
