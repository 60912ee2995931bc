// Package scenario turns external scenario input into a validated Command.
//
// Two input formats are supported:
//
// JSON requests use the wire shape of the REST API:
//
//	{
//	  "maxX": 5, "maxY": 5,
//	  "programs": [
//	    {"startX": 1, "startY": 2, "orientation": "N", "instructions": "LMLMLMLMM"}
//	  ],
//	  "policy": "ignore",
//	  "occupancy": true
//	}
//
// Request.ToCommand checks every field and reports all problems at once as a
// *ValidationError.
//
// The raw text format is line based. The first line holds the grid bounds,
// followed by one pair of lines per robot:
//
//	5 5
//	1 2 N
//	LMLMLMLMM
//	3 3 E
//	MMRMMRMRRM
//
// Blank lines are ignored. Only the first letter of the orientation token is
// significant, so "1 2 North" is accepted. ParseRaw errors wrap ErrInvalidInput.
//
// Commands are plain values. Nothing in this package touches the navigation
// engine; the service layer builds engine primitives from a Command.
package scenario
