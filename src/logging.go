package qmid

/*------------------------------------------------------------------
 *
 * Purpose:   	Leveled debug logging for the dialer.
 *
 * Description:	Three verbosity levels of increasing detail:
 *
 *			1 - lifecycle events (sync, CIDs, connect)
 *			2 - per-message commentary
 *			3 - everything, including frame hex dumps
 *
 *		Call sites gate on qmid_verbose_logging the same way
 *		the original gated on QMID_LOG_LEVEL_*.
 *
 *---------------------------------------------------------------*/

import (
	"encoding/hex"
	"os"

	"github.com/charmbracelet/log"
)

const (
	QMID_LOG_LEVEL_1 = 1
	QMID_LOG_LEVEL_2 = 2
	QMID_LOG_LEVEL_3 = 3
)

var qmid_verbose_logging = QMID_LOG_LEVEL_2

var qmid_log = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "qmid",
})

func qmid_set_verbosity(level int) {
	qmid_verbose_logging = level

	if level >= QMID_LOG_LEVEL_2 {
		qmid_log.SetLevel(log.DebugLevel)
	} else {
		qmid_log.SetLevel(log.InfoLevel)
	}
}

/*
 * Dump a frame at level 3.  Headers have fixed layout so the split
 * makes the TLV area easy to eyeball.
 */

func qmid_dump_frame(direction string, buf []byte) {
	if qmid_verbose_logging < QMID_LOG_LEVEL_3 {
		return
	}

	qmid_log.Debug(direction, "len", len(buf), "frame", hex.EncodeToString(buf))
}
