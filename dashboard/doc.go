// Package dashboard holds the fetched domain data of a logged in user:
// accounts, recent transactions, the last seven days used by the chart, a
// date-range filtered list and the review list of transactions parsed from
// free text. It clears itself when the watched session logs out.
package dashboard
