package qmid

/*------------------------------------------------------------------
 *
 * Purpose:   	Locate a QMI control device when none was given.
 *
 * Description:	QMI modems driven by the qmi_wwan kernel driver show
 *		up as /dev/cdc-wdm* nodes in the usbmisc subsystem.
 *		Walk them via udev and take the first one.  With more
 *		than one modem present the caller should really be
 *		passing an explicit device path.
 *
 *------------------------------------------------------------------*/

import (
	"errors"
	"strings"

	"github.com/jochenvg/go-udev"
)

func qmid_find_modem() (string, error) {
	var u udev.Udev
	var enumerate = u.NewEnumerate()

	enumerate.AddMatchSubsystem("usbmisc")

	var devices, err = enumerate.Devices()
	if err != nil {
		return "", err
	}

	for _, device := range devices {
		var devnode = device.Devnode()

		if strings.HasPrefix(device.Sysname(), "cdc-wdm") && devnode != "" {
			if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
				qmid_log.Debug("Found QMI device", "devnode", devnode)
			}
			return devnode, nil
		}
	}

	return "", errors.New("no cdc-wdm device in usbmisc subsystem")
}
