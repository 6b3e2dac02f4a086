// Package matcher decides whether two catalog tracks are the same recording.
//
// # Normalization
//
// [Normalize] folds case, quotes, colons, diacritics and percent signs, unwraps "(part X)" and removes
// balanced bracketed spans so that decorations such as "(feat. ...)" or "[Remastered]" do not count
// against a match.
//
// # Matching
//
// [Matches] is a pairwise predicate. ISRCs decide when both tracks carry one; otherwise title
// similarity, duration and album similarity are checked. It is deliberately not an equality
// operator: two tracks may each match a third without matching each other.
//
// # Searching
//
// [BuildQueries] produces search candidates and [Resolver] drives them against a destination
// [Searcher], preferring an ISRC lookup when the catalog implements [ISRCSearcher].
package matcher
