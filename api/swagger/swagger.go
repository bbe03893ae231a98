package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Admissions Agent API",
        "description": "Agent session orchestration and realtime sync for the admissions dashboard",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "AgentSessions", "description": "Agent session lifecycle and conversation switching"},
        {"name": "Rankings", "description": "Applicant ranking classifier and exports"},
        {"name": "Authority", "description": "Dual-authority migration controls"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/institutions/{institutionId}/agent-sessions": {
            "get": {
                "tags": ["AgentSessions"],
                "summary": "List agent sessions for an institution",
                "parameters": [
                    {"name": "institutionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["AgentSessions"],
                "summary": "Start a new agent session",
                "parameters": [
                    {"name": "institutionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/institutions/{institutionId}/agent-sessions/{id}": {
            "get": {
                "tags": ["AgentSessions"],
                "summary": "Get a session",
                "parameters": [
                    {"name": "institutionId", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["AgentSessions"],
                "summary": "Delete a session",
                "parameters": [
                    {"name": "institutionId", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/institutions/{institutionId}/agent-sessions/{id}/messages": {
            "get": {
                "tags": ["AgentSessions"],
                "summary": "List conversation messages",
                "parameters": [
                    {"name": "institutionId", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/institutions/{institutionId}/agent-switch": {
            "post": {
                "tags": ["AgentSessions"],
                "summary": "Request or confirm an agent conversation switch",
                "parameters": [
                    {"name": "institutionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SwitchRequest"}}
                ],
                "responses": {
                    "200": {"description": "Switched", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Confirmation required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/institutions/{institutionId}/rankings/classify": {
            "post": {
                "tags": ["Rankings"],
                "summary": "Classify applicants into admission tiers",
                "parameters": [
                    {"name": "institutionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RankingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AgentSession": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "agent_type": {"type": "string"},
                "institution_id": {"type": "string"},
                "course_id": {"type": "string"},
                "status": {"type": "string"},
                "processed_items": {"type": "integer"},
                "total_items": {"type": "integer"},
                "instructions": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "CreateSessionRequest": {
            "type": "object",
            "properties": {
                "agent_type": {"type": "string"},
                "course_id": {"type": "string"},
                "instructions": {"type": "string"}
            },
            "required": ["agent_type"]
        },
        "SwitchRequest": {
            "type": "object",
            "properties": {
                "agent_type": {"type": "string"},
                "instructions": {"type": "string"},
                "confirm": {"type": "boolean"}
            },
            "required": ["agent_type"]
        },
        "RankingRequest": {
            "type": "object",
            "properties": {
                "applicants": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/RankingApplicant"}
                },
                "intake_limit": {"type": "integer"},
                "cutoff_aps": {"type": "number"}
            },
            "required": ["applicants", "intake_limit"]
        },
        "RankingApplicant": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "aps_score": {"type": "number"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
