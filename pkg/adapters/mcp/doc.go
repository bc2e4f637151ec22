/*
Package mcp exposes quote sessions as Model Context Protocol tools, so an
agent can walk a customer through the wizard.

Tools: start_session, get_view, toggle_product, set_field, pick_vehicle,
navigate (next, previous, jump, restart), submit and get_definition. The
definition is also published as the quoteflow://definition resource.

Every wizard tool answers with a Response holding the view. A rejected
intent (invalid form, incomplete step, empty order) is reported in
Response.Error rather than as a tool error.
*/
package mcp
