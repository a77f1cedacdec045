// Command podo submits audio files for hosted listening evaluations and
// inspects their results.
//
//	podo submit --type NMOS a.wav b.wav
//	podo submit --type CMOS --pair generated.wav,original.wav
//	podo evaluations list
//	podo evaluations stats <id> --csv stats.csv
//	podo config init
package main
