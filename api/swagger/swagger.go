package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CETIS 54 Egresados Intake",
        "description": "Graduate-certificate request intake and review console",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Intake", "description": "Public request wizard"},
        {"name": "Authentication", "description": "Administrator session"},
        {"name": "Admin", "description": "Review console"},
        {"name": "Export", "description": "Request reports"}
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
                "summary": "Readiness check (database ping)",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unavailable"}
                }
            }
        },
        "/verificacion": {
            "post": {
                "tags": ["Intake"],
                "summary": "Confirm the applicant has the PDF documents",
                "consumes": ["application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "respuesta", "in": "formData", "type": "string", "enum": ["si", "no"]}
                ],
                "responses": {
                    "200": {"description": "Step re-rendered with a warning"},
                    "303": {"description": "Advance to /pago"}
                }
            }
        },
        "/pago": {
            "post": {
                "tags": ["Intake"],
                "summary": "Confirm the payment was made",
                "consumes": ["application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "respuesta", "in": "formData", "type": "string", "enum": ["si", "no"]}
                ],
                "responses": {
                    "200": {"description": "Step re-rendered with a warning"},
                    "303": {"description": "Advance to /aviso-privacidad"}
                }
            }
        },
        "/aviso-privacidad": {
            "post": {
                "tags": ["Intake"],
                "summary": "Accept the privacy notice",
                "consumes": ["application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "acepto", "in": "formData", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Step re-rendered with a warning"},
                    "303": {"description": "Advance to /formulario"}
                }
            }
        },
        "/registrar": {
            "post": {
                "tags": ["Intake"],
                "summary": "Submit a certificate request",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "paterno", "in": "formData", "type": "string", "required": true},
                    {"name": "materno", "in": "formData", "type": "string", "required": true},
                    {"name": "nombre", "in": "formData", "type": "string", "required": true},
                    {"name": "curp", "in": "formData", "type": "string", "required": true},
                    {"name": "control", "in": "formData", "type": "string", "required": true},
                    {"name": "especialidad", "in": "formData", "type": "string", "required": true},
                    {"name": "turno", "in": "formData", "type": "string", "required": true},
                    {"name": "generacion", "in": "formData", "type": "string", "required": true},
                    {"name": "correo", "in": "formData", "type": "string", "required": true},
                    {"name": "telefono", "in": "formData", "type": "string", "required": true},
                    {"name": "banco", "in": "formData", "type": "string", "required": true},
                    {"name": "llave", "in": "formData", "type": "string", "required": true},
                    {"name": "monto", "in": "formData", "type": "string", "required": true},
                    {"name": "file_pago", "in": "formData", "type": "file", "required": true},
                    {"name": "file_escolar", "in": "formData", "type": "file", "required": true},
                    {"name": "file_curp", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "303": {"description": "Redirect to /finalizado on success or /formulario with a flash message"},
                    "500": {"description": "Storage failure"}
                }
            }
        },
        "/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate an administrator",
                "consumes": ["application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "usuario", "in": "formData", "type": "string", "required": true},
                    {"name": "password", "in": "formData", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Login form with the generic error"},
                    "303": {"description": "Session cookie set, redirect to /admin"}
                }
            }
        },
        "/admin/resumen": {
            "get": {
                "tags": ["Admin"],
                "summary": "Request counts per status",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/actualizar_estatus": {
            "post": {
                "tags": ["Admin"],
                "summary": "Change the status of a request",
                "consumes": ["application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "id", "in": "formData", "type": "integer", "required": true},
                    {"name": "estatus", "in": "formData", "type": "string", "required": true, "enum": ["Pendiente", "En revisión", "Aprobado", "Rechazado"]}
                ],
                "responses": {
                    "303": {"description": "Redirect to /admin with a flash message"}
                }
            }
        },
        "/eliminar_solicitud": {
            "post": {
                "tags": ["Admin"],
                "summary": "Delete a request and its documents",
                "consumes": ["application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "id", "in": "formData", "type": "integer", "required": true}
                ],
                "responses": {
                    "303": {"description": "Redirect to /admin with a flash message"}
                }
            }
        },
        "/exportar_pdf": {
            "get": {
                "tags": ["Export"],
                "summary": "PDF report",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "estatus", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "solicitudes.pdf or solicitudes_<estatus>.pdf"}
                }
            }
        },
        "/exportar_excel": {
            "get": {
                "tags": ["Export"],
                "summary": "Excel report",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "estatus", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "solicitudes.xlsx or solicitudes_<estatus>.xlsx"}
                }
            }
        },
        "/exportar_csv": {
            "get": {
                "tags": ["Export"],
                "summary": "CSV report",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "estatus", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "solicitudes.csv or solicitudes_<estatus>.csv"}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "StatusSummary": {
            "type": "object",
            "properties": {
                "counts": {"type": "object", "additionalProperties": {"type": "integer"}},
                "total": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/StatusSummary"},
                "error": {"$ref": "#/definitions/APIError"},
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
