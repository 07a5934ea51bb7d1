package syntax

// Kind identifies the grammar rule (or token class) a Node was produced by.
// The set is closed; every switch over Kind in this module is expected to be
// exhaustive for the kinds it cares about.
type Kind uint8

const (
	KindInvalid Kind = iota

	// Rules.
	KindAPI
	KindSyntaxLang
	KindInfoStatement
	KindKVPair
	KindImportStatement
	KindImportSpec
	KindImportValue
	KindAPIBody
	KindTypeStatement
	KindTypeSingleSpec
	KindTypeGroupSpec
	KindTypeGroupBody
	KindTypeAlias
	KindTypeStruct
	KindStructType
	KindTypeGroupAlias
	KindStructNameID
	KindAnonymousStruct
	KindField
	KindDataType
	KindReferenceID
	KindTag
	KindServerMeta
	KindServiceStatement
	KindServiceName
	KindServiceBody
	KindServiceRoute
	KindAtDoc
	KindAtHandler
	KindHandlerValue
	KindHTTPRoute
	KindRouteMethod
	KindRoutePath
	KindRouteRequest
	KindRouteResponse

	// Tokens.
	KindIdent
	KindString
	KindRawString
	KindKeyword
	KindPunct
	KindText

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:          "invalid",
	KindAPI:              "api",
	KindSyntaxLang:       "syntaxLang",
	KindInfoStatement:    "infoStatement",
	KindKVPair:           "kvLit",
	KindImportStatement:  "importStatement",
	KindImportSpec:       "importSpec",
	KindImportValue:      "importValue",
	KindAPIBody:          "apiBody",
	KindTypeStatement:    "typeStatement",
	KindTypeSingleSpec:   "typeSingleSpec",
	KindTypeGroupSpec:    "typeGroupSpec",
	KindTypeGroupBody:    "typeGroupBody",
	KindTypeAlias:        "typeAlias",
	KindTypeStruct:       "typeStruct",
	KindStructType:       "structType",
	KindTypeGroupAlias:   "typeGroupAlias",
	KindStructNameID:     "structNameId",
	KindAnonymousStruct:  "anonymousStruct",
	KindField:            "field",
	KindDataType:         "dataType",
	KindReferenceID:      "referenceId",
	KindTag:              "tag",
	KindServerMeta:       "atServer",
	KindServiceStatement: "serviceStatement",
	KindServiceName:      "serviceName",
	KindServiceBody:      "serviceBody",
	KindServiceRoute:     "serviceRoute",
	KindAtDoc:            "atDoc",
	KindAtHandler:        "atHandler",
	KindHandlerValue:     "handlerValue",
	KindHTTPRoute:        "httpRoute",
	KindRouteMethod:      "routeMethod",
	KindRoutePath:        "routePath",
	KindRouteRequest:     "routeRequest",
	KindRouteResponse:    "routeResponse",
	KindIdent:            "IDENT",
	KindString:           "STRING",
	KindRawString:        "RAW_STRING",
	KindKeyword:          "KEYWORD",
	KindPunct:            "PUNCT",
	KindText:             "TEXT",
}

// String returns the grammar-rule name of k, e.g. "structNameId".
func (k Kind) String() string {
	if k >= kindCount {
		return "invalid"
	}
	return kindNames[k]
}

// IsToken reports whether k is a leaf token kind rather than a rule.
func (k Kind) IsToken() bool {
	return k >= KindIdent && k < kindCount
}

// KindByName returns the Kind whose grammar-rule name is name.
func KindByName(name string) (Kind, bool) {
	for k := KindAPI; k < kindCount; k++ {
		if kindNames[k] == name {
			return k, true
		}
	}
	return KindInvalid, false
}
