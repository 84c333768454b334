// Package harness runs raffle scenarios: small YAML files that pin the
// inputs of one run (ledger, sign-ups, plan, seed) and state what must come
// out of it.
//
// # Scenario Format
//
//	name: example
//	description: "What this scenario validates"
//	seed: "<64 hex chars>"      # optional, zero seed when omitted
//	run_id: run-1               # optional
//	event: Spring Fair
//	capacity: 1
//	date: "2024-04-20"          # optional
//	cutoff: "2024-04-10"        # optional
//	historical: |
//	  email,First Name,Last Name,Absent,Late,Attended
//	  a@x.com,Ada,Lovelace,0,1,2
//	signups: |
//	  Email,First Name,Last Name,Participation Status
//	  a@x.com,Ada,Lovelace,planned
//	adjustments:
//	  a@x.com: {late: true}
//	expect:
//	  selected: [a@x.com]
//	  eligible_count: 1
//	  unknown_selected: []
//	  dropped_signups: 0
//	  ledger_contains:
//	    - email: a@x.com
//	      attended: 3
//
// # Deterministic Testing
//
// Every scenario runs with a fixed seed, run id and clock, and commits
// through an in-memory store, so the regenerated ledger is byte-stable and
// can be compared against a golden file.
package harness
