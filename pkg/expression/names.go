package expression

// Canonical function names. Operators use their symbol; aliases such as "add"
// or "equals" are wired to these when the registry is built.
const (
	Constant = "Constant"

	// Math
	Add          = "+"
	Subtract     = "-"
	Multiply     = "*"
	Divide       = "/"
	Mod          = "%"
	Power        = "^"
	Min          = "min"
	Max          = "max"
	Sum          = "sum"
	Average      = "average"
	Count        = "count"
	Union        = "union"
	Intersection = "intersection"
	Rand         = "rand"

	// Comparisons
	LessThan           = "<"
	LessThanOrEqual    = "<="
	Equal              = "=="
	NotEqual           = "!="
	GreaterThan        = ">"
	GreaterThanOrEqual = ">="
	Exists             = "exists"
	Contains           = "contains"
	Empty              = "empty"

	// Logic
	And = "&&"
	Or  = "||"
	Not = "!"
	If  = "if"

	// Strings
	Concat            = "&"
	Length            = "length"
	Replace           = "replace"
	ReplaceIgnoreCase = "replaceIgnoreCase"
	Split             = "split"
	Substring         = "substring"
	ToLower           = "toLower"
	ToUpper           = "toUpper"
	TitleCase         = "titleCase"
	Trim              = "trim"
	StartsWith        = "startsWith"
	EndsWith          = "endsWith"
	CountWord         = "countWord"
	AddOrdinal        = "addOrdinal"
	Join              = "join"
	NewGuid           = "newGuid"

	// Date and time
	AddDays          = "addDays"
	AddHours         = "addHours"
	AddMinutes       = "addMinutes"
	AddSeconds       = "addSeconds"
	DayOfMonth       = "dayOfMonth"
	DayOfWeek        = "dayOfWeek"
	DayOfYear        = "dayOfYear"
	Month            = "month"
	Date             = "date"
	Year             = "year"
	UtcNow           = "utcNow"
	FormatDateTime   = "formatDateTime"
	AddToTime        = "addToTime"
	SubtractFromTime = "subtractFromTime"
	DateReadBack     = "dateReadBack"
	GetTimeOfDay     = "getTimeOfDay"
	GetFutureTime    = "getFutureTime"
	GetPastTime      = "getPastTime"

	// Conversions
	Float  = "float"
	Int    = "int"
	String = "string"
	Bool   = "bool"

	// Access
	Accessor    = "Accessor"
	Element     = "Element"
	GetProperty = "getProperty"

	// Objects and collections
	CreateArray    = "createArray"
	First          = "first"
	Last           = "last"
	JSON           = "json"
	AddProperty    = "addProperty"
	SetProperty    = "setProperty"
	RemoveProperty = "removeProperty"
	Foreach        = "foreach"

	// Regular expressions
	IsMatch = "isMatch"
)

// Scope slot names used by the foreach rewrite.
const (
	GlobalScope = "$global"
	LocalScope  = "$local"
)
