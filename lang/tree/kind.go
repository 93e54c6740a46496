package tree

import "iter"

// Kind is the type of a syntax node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindSourceFile
	KindError
	KindToken

	KindIdentifier
	KindInteger
	KindFloat
	KindString
	KindIndentedString
	KindStringInterpolation
	KindPath
	KindURI
	KindBoolean
	KindNull
	KindList
	KindAttrset
	KindRecAttrset
	KindBinding
	KindInherit
	KindAttrpath
	KindLetExpression
	KindWithExpression
	KindAssertExpression
	KindIfExpression
	KindUnaryExpression
	KindBinaryExpression
	KindSelect
	KindHasAttr
	KindApplication
	KindFunctionExpression
	KindFormals
	KindFormal
	KindParenthesizedExpression

	numKinds
)

var kindNames = [numKinds]string{
	KindInvalid:                 "invalid",
	KindSourceFile:              "source_file",
	KindError:                   "ERROR",
	KindToken:                   "token",
	KindIdentifier:              "identifier",
	KindInteger:                 "integer",
	KindFloat:                   "float",
	KindString:                  "string",
	KindIndentedString:          "indented_string",
	KindStringInterpolation:     "string_interpolation",
	KindPath:                    "path",
	KindURI:                     "uri",
	KindBoolean:                 "boolean",
	KindNull:                    "null",
	KindList:                    "list",
	KindAttrset:                 "attrset",
	KindRecAttrset:              "rec_attrset",
	KindBinding:                 "binding",
	KindInherit:                 "inherit",
	KindAttrpath:                "attrpath",
	KindLetExpression:           "let_expression",
	KindWithExpression:          "with_expression",
	KindAssertExpression:        "assert_expression",
	KindIfExpression:            "if_expression",
	KindUnaryExpression:         "unary_expression",
	KindBinaryExpression:        "binary_expression",
	KindSelect:                  "select",
	KindHasAttr:                 "has_attr",
	KindApplication:             "application",
	KindFunctionExpression:      "function_expression",
	KindFormals:                 "formals",
	KindFormal:                  "formal",
	KindParenthesizedExpression: "parenthesized_expression",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}

	return kindNames[KindInvalid]
}

// Named reports whether nodes of kind k are syntax nodes rather than
// anonymous punctuation, keyword or string-fragment leaves.
func (k Kind) Named() bool { return k != KindToken && k != KindInvalid }

// Kinds yields every named node kind in declaration order.
func Kinds() iter.Seq[Kind] {
	return func(yield func(Kind) bool) {
		for k := KindSourceFile; k < numKinds; k++ {
			if k != KindToken && !yield(k) {
				return
			}
		}
	}
}

// ParseKind returns the named kind called s.
func ParseKind(s string) (Kind, bool) {
	for k := range Kinds() {
		if kindNames[k] == s {
			return k, true
		}
	}

	return KindInvalid, false
}

// Field labels the role of a child within its parent.
type Field uint8

const (
	FieldNone Field = iota
	FieldExpression
	FieldBody
	FieldLeft
	FieldRight
	FieldOperator
	FieldArgument
	FieldFunction
	FieldParameter
	FieldFormals
	FieldUniversal
	FieldCondition
	FieldConsequence
	FieldAlternative
	FieldEnvironment
	FieldBindings
	FieldAttrpath
	FieldAttr
	FieldElements
	FieldName
	FieldDefault
	FieldFrom
	FieldAttributes
	FieldFormal
	FieldEllipses

	numFields
)

var fieldNames = [numFields]string{
	FieldNone:        "",
	FieldExpression:  "expression",
	FieldBody:        "body",
	FieldLeft:        "left",
	FieldRight:       "right",
	FieldOperator:    "operator",
	FieldArgument:    "argument",
	FieldFunction:    "function",
	FieldParameter:   "parameter",
	FieldFormals:     "formals",
	FieldUniversal:   "universal",
	FieldCondition:   "condition",
	FieldConsequence: "consequence",
	FieldAlternative: "alternative",
	FieldEnvironment: "environment",
	FieldBindings:    "bindings",
	FieldAttrpath:    "attrpath",
	FieldAttr:        "attr",
	FieldElements:    "elements",
	FieldName:        "name",
	FieldDefault:     "default",
	FieldFrom:        "from",
	FieldAttributes:  "attributes",
	FieldFormal:      "formal",
	FieldEllipses:    "ellipses",
}

func (f Field) String() string {
	if f < numFields {
		return fieldNames[f]
	}

	return ""
}

// ParseField returns the field named s.
func ParseField(s string) (Field, bool) {
	for f := FieldExpression; f < numFields; f++ {
		if fieldNames[f] == s {
			return f, true
		}
	}

	return FieldNone, false
}

// Fields yields every field label in declaration order.
func Fields() iter.Seq[Field] {
	return func(yield func(Field) bool) {
		for f := FieldExpression; f < numFields; f++ {
			if !yield(f) {
				return
			}
		}
	}
}
