// Package api provides the domain platform REST API.
//
//	@title						Domain Platform API
//	@version					1.0
//	@description				Custom domain lifecycle and DNS reconciliation API
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
package api
