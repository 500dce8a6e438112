package i18n

// Common errors
var (
	ErrNotFound       = NewErrorWithCode("ErrorResourceNotFound", ErrorNotFound)
	ErrUnauthorized   = NewErrorWithCode("ErrorUnauthorized", ErrorUnauthorized)
	ErrForbidden      = NewErrorWithCode("ErrorForbidden", ErrorForbidden)
	ErrBadRequest     = NewErrorWithCode("ErrorBadRequest", ErrorBadRequest)
	ErrInternalServer = NewErrorWithCode("ErrorInternalServer", ErrorInternalServer)
)

// Company related errors
var (
	ErrorCompanyNotFound     = NewErrorWithCode("ErrorCompanyNotFound", ErrorNotFound)
	ErrorCompanyNameRequired = NewErrorWithCode("ErrorCompanyNameRequired", ErrorBadRequest)
	ErrorCompanyCodeExists   = NewErrorWithCode("ErrorCompanyCodeExists", ErrorConflict)
	ErrorCompanyInactive     = NewErrorWithCode("ErrorCompanyInactive", ErrorForbidden)
	ErrorCompanyScopeDenied  = NewErrorWithCode("ErrorCompanyScopeDenied", ErrorForbidden)
)

// User related errors
var (
	ErrorUserNotFound       = NewErrorWithCode("ErrorUserNotFound", ErrorNotFound)
	ErrorInvalidCredentials = NewErrorWithCode("ErrorInvalidCredentials", ErrorUnauthorized)
	ErrorUserDisabled       = NewErrorWithCode("ErrorUserDisabled", ErrorForbidden)
	ErrorEmailExists        = NewErrorWithCode("ErrorEmailExists", ErrorConflict)
	ErrorInvalidEmail       = NewErrorWithCode("ErrorInvalidEmail", ErrorBadRequest)
	ErrorPasswordRequired   = NewErrorWithCode("ErrorPasswordRequired", ErrorBadRequest)
)

// Portal related errors
var (
	// ErrorPortalAccessDenied is deliberately generic so probes cannot
	// distinguish unknown companies from unauthorized emails.
	ErrorPortalAccessDenied  = NewErrorWithCode("ErrorPortalAccessDenied", ErrorUnauthorized)
	ErrorPortalLinkExpired   = NewErrorWithCode("ErrorPortalLinkExpired", ErrorUnauthorized)
	ErrorPortalLinkConsumed  = NewErrorWithCode("ErrorPortalLinkConsumed", ErrorUnauthorized)
	ErrorPortalCompanyClosed = NewErrorWithCode("ErrorPortalCompanyClosed", ErrorForbidden)
)

// Inspection related errors
var (
	ErrorInspectionNotFound       = NewErrorWithCode("ErrorInspectionNotFound", ErrorNotFound)
	ErrorInspectionNotEditable    = NewErrorWithCode("ErrorInspectionNotEditable", ErrorConflict)
	ErrorInspectionTransition     = NewErrorWithCode("ErrorInspectionTransition", ErrorConflict)
	ErrorInspectionNoParts        = NewErrorWithCode("ErrorInspectionNoParts", ErrorUnprocessable)
	ErrorInspectionPartEmpty      = NewErrorWithCode("ErrorInspectionPartEmpty", ErrorUnprocessable)
	ErrorInspectionNotInProgress  = NewErrorWithCode("ErrorInspectionNotInProgress", ErrorConflict)
	ErrorInspectionPartNotFound   = NewErrorWithCode("ErrorInspectionPartNotFound", ErrorNotFound)
	ErrorInspectionItemNotFound   = NewErrorWithCode("ErrorInspectionItemNotFound", ErrorNotFound)
	ErrorInspectorRoleRequired    = NewErrorWithCode("ErrorInspectorRoleRequired", ErrorForbidden)
	ErrorInspectionStartDenied    = NewErrorWithCode("ErrorInspectionStartDenied", ErrorForbidden)
	ErrorInspectionCompleteDenied = NewErrorWithCode("ErrorInspectionCompleteDenied", ErrorForbidden)
)

// General validation errors
var (
	ErrorRequiredField = NewErrorWithCode("ErrorRequiredField", ErrorBadRequest)
	ErrorInvalidFormat = NewErrorWithCode("ErrorInvalidFormat", ErrorBadRequest)
	ErrorInvalidValue  = NewErrorWithCode("ErrorInvalidValue", ErrorBadRequest)
)

// Company related success messages
const (
	SuccessCompanyCreated = "SuccessCompanyCreated"
	SuccessCompanyUpdated = "SuccessCompanyUpdated"
	SuccessCompanyDeleted = "SuccessCompanyDeleted"
	SuccessCompanyInfo    = "SuccessCompanyInfo"
	SuccessCompanyList    = "SuccessCompanyList"
)

// User related success messages
const (
	SuccessLogin           = "SuccessLogin"
	SuccessLogout          = "SuccessLogout"
	SuccessPasswordChanged = "SuccessPasswordChanged"
	SuccessUserCreated     = "SuccessUserCreated"
	SuccessUserUpdated     = "SuccessUserUpdated"
	SuccessUserDeleted     = "SuccessUserDeleted"
	SuccessUserInfo        = "SuccessUserInfo"
	SuccessUserList        = "SuccessUserList"
)

// Portal related success messages
const (
	SuccessPortalLinkSent  = "SuccessPortalLinkSent"
	SuccessPortalLogin     = "SuccessPortalLogin"
	SuccessPortalDashboard = "SuccessPortalDashboard"
)

// Inspection related success messages
const (
	SuccessInspectionCreated   = "SuccessInspectionCreated"
	SuccessInspectionUpdated   = "SuccessInspectionUpdated"
	SuccessInspectionDeleted   = "SuccessInspectionDeleted"
	SuccessInspectionStarted   = "SuccessInspectionStarted"
	SuccessInspectionCompleted = "SuccessInspectionCompleted"
	SuccessInspectionInfo      = "SuccessInspectionInfo"
	SuccessInspectionList      = "SuccessInspectionList"
	SuccessItemRecorded        = "SuccessItemRecorded"
	SuccessItemDeleted         = "SuccessItemDeleted"
)

// General success messages
const (
	SuccessOperationCompleted = "SuccessOperationCompleted"
	SuccessDataExported       = "SuccessDataExported"
)
