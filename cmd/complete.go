package cmd

import (
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion describes the command tree for shell completion. main hands it
// to Complete before flag parsing; when invoked by the shell's completion
// hook it prints candidates and exits.
func Completion() *complete.Command {
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"data-dir": predict.Dirs("*"),
		},
		Sub: map[string]*complete.Command{
			"sync": {Flags: map[string]complete.Predictor{
				"i":       predict.Something,
				"dry-run": predict.Nothing,
				"cached":  predict.Nothing,
				"json":    predict.Nothing,
			}},
			"import": {
				Args: predict.Files("*.csv"),
				Flags: map[string]complete.Predictor{
					"a":              predict.Something,
					"date-format":    predict.Set{"YYYY-MM-DD", "MM/DD/YYYY", "DD/MM/YYYY", "YYYY/MM/DD"},
					"flip-signs":     predict.Nothing,
					"debit-negative": predict.Nothing,
					"n":              predict.Something,
					"y":              predict.Nothing,
					"save":           predict.Something,
				},
			},
			"demo":   {Args: predict.Set{"on", "off", "status"}},
			"status": {Flags: map[string]complete.Predictor{"json": predict.Nothing}},
			"accounts": {Flags: map[string]complete.Predictor{
				"a":        predict.Something,
				"nickname": predict.Something,
				"type":     predict.Set{"checking", "savings", "credit", "investment", "unknown"},
				"json":     predict.Nothing,
			}},
			"tx": {Flags: map[string]complete.Predictor{
				"a":    predict.Something,
				"s":    predict.Something,
				"d":    predict.Something,
				"n":    predict.Something,
				"json": predict.Nothing,
			}},
			"snapshot": {
				Args: predict.Set{"add"},
				Flags: map[string]complete.Predictor{
					"a":       predict.Something,
					"balance": predict.Something,
					"d":       predict.Something,
				},
			},
			"backfill": {Flags: map[string]complete.Predictor{
				"a":        predict.Something,
				"days":     predict.Something,
				"boundary": predict.Something,
				"dry-run":  predict.Nothing,
				"json":     predict.Nothing,
			}},
			"tag": {Flags: map[string]complete.Predictor{
				"i":       predict.Something,
				"suggest": predict.Nothing,
				"bayes":   predict.Nothing,
				"n":       predict.Something,
				"replace": predict.Nothing,
			}},
			"integrations": {Sub: map[string]*complete.Command{
				"add": {Flags: map[string]complete.Predictor{
					"p":              predict.Set{"simplefin", "csv", "demo"},
					"name":           predict.Something,
					"balances-only":  predict.Nothing,
					"token":          predict.Something,
					"access-url":     predict.Something,
					"file":           predict.Files("*.csv"),
					"a":              predict.Something,
					"date-format":    predict.Set{"YYYY-MM-DD", "MM/DD/YYYY", "DD/MM/YYYY", "YYYY/MM/DD"},
					"flip-signs":     predict.Nothing,
					"debit-negative": predict.Nothing,
					"window-days":    predict.Something,
				}},
				"list":   {Flags: map[string]complete.Predictor{"json": predict.Nothing}},
				"remove": {Flags: map[string]complete.Predictor{"f": predict.Nothing}, Args: predict.Something},
			}},
			"backup":  {Args: predict.Set{"create", "list"}},
			"topic":   {Args: predict.Something},
			"version": {},
			"help":    {},
			"flags":   {},
		},
	}
}
