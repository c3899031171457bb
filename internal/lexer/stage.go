package lexer

import "github.com/oaraujo/pasc/internal/diag"

const diagStage = diag.StageLexical
