package main

/*------------------------------------------------------------------
 *
 * Purpose:   	Main program for "qmid", a user-space QMI dialer.
 *
 * Description:	Brings a QMI cellular modem from cold to an active
 *		packet data session and keeps it there until asked to
 *		stop:
 *
 *			Control channel synchronization.
 *			Raw-IP data format negotiation.
 *			Client id allocation for DMS, WDS, NAS.
 *			SIM PIN unlock (when configured).
 *			Autoconnect + packet data session via WDS.
 *			Clean teardown on SIGINT/SIGTERM.
 *
 *---------------------------------------------------------------*/

import (
	"os"

	qmid "github.com/doismellburning/husky/src"
)

func main() {
	os.Exit(qmid.QmidMain())
}
