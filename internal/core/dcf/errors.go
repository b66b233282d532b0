package dcf

import perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"

// Sentinel malformed-dictionary conditions from the relation state machine:
// reasserting Name/Primary mid-relation without an intervening Emit loses
// data and is fatal, as is an unrecognized tag inside a [Relation] chunk
var (
	errNameAlreadySet     = perr.New(perr.ErrorCodeValidation, "relation: Name already set, call Emit first")
	errPrimaryAlreadySet  = perr.New(perr.ErrorCodeValidation, "relation: Primary already set, call Emit first")
	errUnknownRelationTag = perr.New(perr.ErrorCodeValidation, "relation: unknown relationship specification tag")
)
