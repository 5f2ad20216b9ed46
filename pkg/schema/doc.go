// Package schema validates the loosely typed definitions clients send when
// they create collections and collection fields.
//
// A Schema maps keys to Types. Required keys must be present; keys wrapped
// in Optional may be absent. Every failure is collected into an
// AggregateError so a client sees all problems at once.
//
//	s := schema.Schema{
//	    "name":      schema.Identifier(),
//	    "interface": schema.OneOf("input", "textarea"),
//	    "uiSchema":  schema.Optional(schema.Map()),
//	}
//	if err := schema.Validate(s, def); err != nil {
//	    // report schema.ValidationErrors(err)
//	}
//
// DecodeCollection and DecodeField validate and then decode into the
// domain types with mapstructure.
package schema
