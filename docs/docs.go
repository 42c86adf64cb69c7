// Package docs registers the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/schedules": {
            "get": {"tags": ["schedules"], "summary": "List schedules", "responses": {"200": {"description": "OK"}}}
        },
        "/schedules/{id}": {
            "get": {"tags": ["schedules"], "summary": "Get a schedule", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/schedules/{id}/dates": {
            "get": {"tags": ["schedules"], "summary": "List operating dates", "responses": {"200": {"description": "OK"}}}
        },
        "/schedules/{id}/dates/{date}/seats": {
            "get": {"tags": ["seats"], "summary": "Seat map of one trip", "responses": {"200": {"description": "OK"}}}
        },
        "/schedules/{id}/dates/{date}/availability": {
            "get": {"tags": ["seats"], "summary": "Available seat count of one trip", "responses": {"200": {"description": "OK"}}}
        },
        "/bookings": {
            "post": {"tags": ["bookings"], "summary": "Reserve seats and create a pending booking", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "Seat unavailable"}, "422": {"description": "Capacity exceeded"}}}
        },
        "/bookings/{id}": {
            "get": {"tags": ["bookings"], "summary": "Get a booking by id or code", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/bookings/{id}/cancel": {
            "post": {"tags": ["bookings"], "summary": "Cancel a booking and release its seats", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition"}}}
        },
        "/bookings/{id}/payments": {
            "get": {"tags": ["payments"], "summary": "List payments of a booking", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["payments"], "summary": "Submit a payment for a pending booking", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate payment"}, "422": {"description": "Amount mismatch"}}}
        },
        "/users/bookings": {
            "get": {"tags": ["bookings"], "summary": "List the caller's bookings", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/bookings/{id}/complete": {
            "post": {"tags": ["admin"], "summary": "Complete a confirmed booking", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/schedules": {
            "post": {"tags": ["admin"], "summary": "Create a schedule", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/admin/schedules/{id}/dates": {
            "post": {"tags": ["admin"], "summary": "Add an operating date and materialize its seats", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/payments/{id}": {
            "get": {"tags": ["payments"], "summary": "Get a payment", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/payments/{id}/verify": {
            "post": {"tags": ["admin"], "summary": "Verify or reject a pending payment", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition"}}}
        },
        "/admin/payments/{id}/refund": {
            "post": {"tags": ["admin"], "summary": "Refund a verified payment", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/payments/reconciliation": {
            "get": {"tags": ["admin"], "summary": "Payments flagged for reconciliation", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/reconciliation/sweep": {
            "post": {"tags": ["admin"], "summary": "Run the orphaned reservation sweep", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/reconciliation/issues": {
            "get": {"tags": ["admin"], "summary": "List integrity issues", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/reconciliation/issues/{id}/resolve": {
            "post": {"tags": ["admin"], "summary": "Resolve an integrity issue", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "Already resolved"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Busline API",
	Description:      "Seat reservation, booking and payment API for intercity bus schedules.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
