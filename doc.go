/*
Package quizflow is a deterministic traversal engine for branching quiz
funnels.

A quiz is a directed graph of composite nodes. Each node shows an ordered
list of elements (questions, content, mini-games, lead forms) and routes
on the respondent's outcome through element-scoped handles. The engine
accumulates a score, applies an optional gamification overlay (lives,
streaks, timers) and resolves the final score to a result range.

The engine is stateless: the host owns the RunState and passes it in on
every step. Finished runs are handed to a Dispatcher and announced to the
embedding page through an EventSink.

# Usage

	eng, err := quizflow.New("./quizzes")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	state, err := eng.Start(ctx, "personality", "")
	if err != nil {
		log.Fatal(err)
	}

	for !state.Finished() {
		prompt, err := eng.Current(ctx, state)
		if err != nil {
			log.Fatal(err)
		}
		// render prompt.Element, collect the respondent's outcome
		state, err = eng.Submit(ctx, state, domain.Input{Outcome: outcome})
		if err != nil {
			log.Fatal(err)
		}
	}
	fmt.Println(state.Score, state.Result.Category)
*/
package quizflow
