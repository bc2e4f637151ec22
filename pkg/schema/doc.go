// Package schema validates the free-text fields of form steps.
//
// A Schema is the ordered list of fields of one form step, each bound to a
// Type that knows how to check a non-blank value and which message to report
// when a required value is missing. Failures come back as *ValidationError
// values collected in an *AggregateError, in field order:
//
//	s, err := schema.FromStep(contactStep)
//	if err != nil {
//	    // unknown validator kind
//	}
//	if err := schema.Validate(s, values); err != nil {
//	    for field, msg := range schema.Messages(err) {
//	        fmt.Println(field, msg)
//	    }
//	}
//
// Custom types can be registered for domain-specific checks:
//
//	vin := schema.Custom("vin", "Enter your VIN.", func(v string) error {
//	    if len(v) != 17 {
//	        return fmt.Errorf("Enter a valid VIN.")
//	    }
//	    return nil
//	})
package schema
