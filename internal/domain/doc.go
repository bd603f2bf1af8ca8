// Package domain models Arctic Ocean temperature/salinity profile data.
//
// # Data Sources
//
// Two instrument families are ingested:
//
//   - AIDJEX: the 1975-76 Arctic Ice Dynamics Joint Experiment manned
//     stations (BigBear, BlueFox, Caribou, Snowbird). One text file per cast.
//   - ITP: Ice-Tethered Profilers, drifting buoys that repeatedly profile the
//     upper ocean. Distributed by WHOI in two sub-formats: "final" (text) and
//     "cormat" (MATLAB containers).
//
// # AIDJEX Conventions
//
// File name embeds the profile number as its only digit run:
//
//	BigBear_042  →  profile "42"
//
// Header layout (whitespace separated):
//
//	line 0: ... <d/MON/YYYY> <HMM>        tokens 3 and 4, e.g. "3/APR/1975 930"
//	line 1: Lat <lat> Lon <lon>           markers compared case-insensitively
//	line 2: (free text)
//	line 3: Depth(m) Temp(C) Sal(PPT)     column headers
//	line 4+: data
//
// The time token is zero-padded to four digits ("930" → "0930").
//
// # ITP "final" Conventions
//
// File name ends in a 4-digit profile number before the extension:
//
//	itp1grd0042.dat  →  profile "42"
//
// Header layout:
//
//	line 0: (free text)
//	line 1: <year> <day> <lon> <lat> ...  day is fractional; day 1.0 = Jan 1 00:00
//	line 2: %pressure(dbar) temperature(C) salinity ...
//	line 3..n-2: data
//	line n-1: footer, never data
//
// # ITP "cormat" Conventions
//
// MATLAB container (cor0042.mat) holding te_adj, sa_adj, pr_filt (measurements),
// psdate ("MM/DD/YY"), pstart ("HH:MM:SS"), longitude, latitude. Either a
// Level 5 or a legacy Level 4 container. Down-casts (first pressure below the
// last) are discarded because the profiler's own wake contaminates them.
//
// # Unknown Values
//
// 99.9999/99.9999 is the navigation sentinel for "no fix"; both coordinates
// become nil. Unparsable dates become nil. Non-numeric or NaN measurements
// drop the row: temperature, salinity and pressure are never absent in a Table.
package domain
