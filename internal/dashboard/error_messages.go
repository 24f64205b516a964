package dashboard

// error_messages.go maps technical errors to messages for the page.
//
// # Error Codes Reference
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Patterns: "file too large", "request body too large"
//	FILE002 - Empty file: The uploaded file has no header row
//	          Patterns: "empty file"
//	FILE003 - Invalid CSV: File could not be read as CSV
//	          Patterns: "parse csv"
//	FILE004 - Invalid workbook: File could not be read as an Excel workbook
//	          Patterns: "parse xlsx"
//	FILE005 - No file: No file has been uploaded yet
//	          Patterns: "no file provided"
//
// # Chart Errors (CHART001-CHART099)
//
//	CHART001 - Unknown chart type
//	           Patterns: "unknown chart type"
//	CHART002 - Column cannot be read as numbers
//	           Patterns: "not numeric"
//	CHART003 - Column has no values to plot
//	           Patterns: "no values to plot"
//	CHART004 - Column is not part of the selection
//	           Patterns: "unknown column"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - System busy: Too many uploads being parsed
//	         Patterns: "too many uploads"
//	UPL002 - Request cancelled
//	         Patterns: "context canceled"
//	UPL003 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session expired
//	         Patterns: "session not found"
//	SES002 - Session storage failure
//	         Patterns: "load session", "save session", "save filtros"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. The technical error is in the logs.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage is what the page shows for an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Reference code
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "O arquivo excede o tamanho máximo permitido",
			Action:  "Divida o arquivo em partes menores",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "O arquivo excede o tamanho máximo permitido",
			Action:  "Divida o arquivo em partes menores",
			Code:    "FILE001",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "O arquivo enviado está vazio",
			Action:  "Envie um arquivo CSV com uma linha de cabeçalho",
			Code:    "FILE002",
		},
	},
	{
		pattern: "parse csv",
		msg: UserMessage{
			Message: "Não foi possível ler o arquivo como CSV",
			Action:  "Verifique se o arquivo é separado por vírgulas e tem colunas consistentes",
			Code:    "FILE003",
		},
	},
	{
		pattern: "parse xlsx",
		msg: UserMessage{
			Message: "Não foi possível ler o arquivo como planilha Excel",
			Action:  "Salve a planilha como .xlsx ou exporte-a como CSV",
			Code:    "FILE004",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "Nenhum arquivo foi carregado",
			Action:  "Por favor, faça o upload de um arquivo CSV para começar",
			Code:    "FILE005",
		},
	},

	// Chart errors
	{
		pattern: "unknown chart type",
		msg: UserMessage{
			Message: "Tipo de gráfico desconhecido",
			Action:  "Escolha Barras, Linhas ou Pizza",
			Code:    "CHART001",
		},
	},
	{
		pattern: "not numeric",
		msg: UserMessage{
			Message: "A coluna escolhida não é numérica",
			Action:  "Escolha colunas numéricas para os eixos do gráfico",
			Code:    "CHART002",
		},
	},
	{
		pattern: "no values to plot",
		msg: UserMessage{
			Message: "A coluna escolhida não tem valores",
			Action:  "Escolha outra coluna",
			Code:    "CHART003",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "A coluna escolhida não está entre as colunas selecionadas",
			Action:  "Selecione a coluna no filtro antes de usá-la no gráfico",
			Code:    "CHART004",
		},
	},

	// Upload errors
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "O sistema está processando outros arquivos",
			Action:  "Aguarde um momento e tente novamente",
			Code:    "UPL001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "A requisição foi cancelada",
			Action:  "Tente novamente",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "A requisição demorou demais",
			Action:  "Tente um arquivo menor ou verifique sua conexão",
			Code:    "UPL003",
		},
	},

	// Session errors
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Sua sessão expirou",
			Action:  "Faça o upload do arquivo novamente",
			Code:    "SES001",
		},
	},
	{
		pattern: "load session",
		msg: UserMessage{
			Message: "Não foi possível carregar a sessão",
			Action:  "Tente novamente em alguns instantes",
			Code:    "SES002",
		},
	},
	{
		pattern: "save session",
		msg: UserMessage{
			Message: "Não foi possível salvar a sessão",
			Action:  "Tente novamente em alguns instantes",
			Code:    "SES002",
		},
	},
	{
		pattern: "save filtros",
		msg: UserMessage{
			Message: "Não foi possível salvar a seleção de colunas",
			Action:  "Tente novamente em alguns instantes",
			Code:    "SES002",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Muitas requisições",
			Action:  "Aguarde um momento antes de tentar novamente",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "Ocorreu um erro inesperado",
	Action:  "Tente novamente",
	Code:    "ERR000",
}

// MapError converts a technical error to a user message.
// Unknown errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Código: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Código: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	UserMessage
	Err error
}

// NewUserError wraps err, or returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{UserMessage: MapError(err), Err: err}
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}
