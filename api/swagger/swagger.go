package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Civic Issue Reporting API",
        "description": "Citizen issue submission, admin triage, authority notification and analytics",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Issues", "description": "Citizen submissions and issue detail"},
        {"name": "Admin", "description": "Admin session, bootstrap and triage listing"},
        {"name": "Analytics", "description": "Aggregated issue statistics"},
        {"name": "API", "description": "Machine readable issue feed"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check against Postgres and Redis",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/submit_issue": {
            "post": {
                "tags": ["Issues"],
                "summary": "Report a civic issue",
                "consumes": ["multipart/form-data", "application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "name", "in": "formData", "type": "string", "required": true},
                    {"name": "email", "in": "formData", "type": "string", "required": true},
                    {"name": "category", "in": "formData", "type": "string", "required": true,
                     "enum": ["roads", "potholes", "cleanliness", "street_lights", "water_supply", "drainage", "waste_management", "traffic", "other"]},
                    {"name": "description", "in": "formData", "type": "string", "required": true},
                    {"name": "location", "in": "formData", "type": "string", "required": true},
                    {"name": "latitude", "in": "formData", "type": "number"},
                    {"name": "longitude", "in": "formData", "type": "number"},
                    {"name": "photo", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Issue created"},
                    "400": {"description": "Field validation errors"},
                    "413": {"description": "Upload too large"},
                    "429": {"description": "Daily submission limit reached"}
                }
            }
        },
        "/all-issues": {
            "get": {
                "tags": ["Issues"],
                "summary": "Public paginated issue list",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "priority", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "Issues, status counts and echoed filters"}}
            }
        },
        "/issue/{id}": {
            "get": {
                "tags": ["Issues"],
                "summary": "Issue detail with signed photo URL",
                "parameters": [{"name": "id", "in": "path", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "Issue"},
                    "401": {"description": "Login required"},
                    "404": {"description": "Issue not found"}
                }
            }
        },
        "/update_issue/{id}": {
            "post": {
                "tags": ["Admin"],
                "summary": "Triage an issue",
                "consumes": ["application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "status", "in": "formData", "type": "string", "required": true,
                     "enum": ["submitted", "in_progress", "resolved", "rejected"]},
                    {"name": "priority", "in": "formData", "type": "string", "required": true,
                     "enum": ["low", "medium", "high", "urgent"]},
                    {"name": "admin_notes", "in": "formData", "type": "string"},
                    {"name": "assigned_to", "in": "formData", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Updated issue"},
                    "400": {"description": "Field validation errors"},
                    "401": {"description": "Login required"},
                    "404": {"description": "Issue not found"}
                }
            }
        },
        "/uploads/{token}": {
            "get": {
                "tags": ["Issues"],
                "summary": "Download a photo by signed token",
                "parameters": [{"name": "token", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Photo bytes"},
                    "404": {"description": "Unknown, expired or missing photo"}
                }
            }
        },
        "/admin": {
            "get": {
                "tags": ["Admin"],
                "summary": "Admin issue listing with status counts",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "priority", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Issues, stats, filters and current admin"},
                    "303": {"description": "Redirect to login"}
                }
            }
        },
        "/admin/login": {
            "get": {
                "tags": ["Admin"],
                "summary": "Login state",
                "responses": {
                    "200": {"description": "Not logged in"},
                    "303": {"description": "Already logged in"}
                }
            },
            "post": {
                "tags": ["Admin"],
                "summary": "Authenticate an admin",
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "parameters": [
                    {"name": "username", "in": "formData", "type": "string", "required": true},
                    {"name": "password", "in": "formData", "type": "string", "required": true},
                    {"name": "next", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Session cookie set"},
                    "401": {"description": "Invalid username or password"}
                }
            }
        },
        "/admin/logout": {
            "get": {
                "tags": ["Admin"],
                "summary": "End the admin session",
                "responses": {"200": {"description": "Session cookie cleared"}}
            }
        },
        "/admin/create": {
            "get": {
                "tags": ["Admin"],
                "summary": "Bootstrap availability",
                "responses": {
                    "200": {"description": "No admin exists yet"},
                    "303": {"description": "An admin already exists"}
                }
            },
            "post": {
                "tags": ["Admin"],
                "summary": "Create the first admin",
                "parameters": [
                    {"name": "username", "in": "formData", "type": "string", "required": true},
                    {"name": "email", "in": "formData", "type": "string", "required": true},
                    {"name": "password", "in": "formData", "type": "string", "required": true}
                ],
                "responses": {
                    "201": {"description": "Admin created"},
                    "303": {"description": "An admin already exists"}
                }
            }
        },
        "/admin/issues/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export the filtered listing",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "priority", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "Attachment"}}
            }
        },
        "/analytics": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Full analytics dashboard",
                "responses": {"200": {"description": "Distributions, monthly stats, map points and performance"}}
            }
        },
        "/analytics/system": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Instrumentation snapshot",
                "responses": {"200": {"description": "Cache, request and query counters"}}
            }
        },
        "/api/analytics": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Chart data",
                "responses": {
                    "200": {"description": "Distributions and monthly trend"},
                    "401": {"description": "Login required"}
                }
            }
        },
        "/api/issues": {
            "get": {
                "tags": ["API"],
                "summary": "Every issue as flat records",
                "responses": {"200": {"description": "Issue list"}}
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "Exposition format"}}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
