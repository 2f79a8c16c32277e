/*
RTLTPMS is an rtl-sdr receiver for tire pressure monitoring sensors operating
in the 315MHz and 433.92MHz ISM bands.

The sample stream is decimated to a 400kHz IF and run through a bank of ASK
and FSK branches, one per profile. Each branch recovers symbols at every rate
listed in its profile and searches for each rate's access codes. The 256 bits
following a matched access code are captured as a frame and handed to the
payload decoders.

Command-line Flags:

	--centerfreq=315M

Sets the center frequency of the rtl_tcp server. Defaults to 315MHz, use
433.92M for european sensors.

	--samplerate=2.4M

Sets the sample rate of the rtl_tcp server. Must be an integer multiple of
the 400kHz IF rate.

	--duration=0

Sets time to receive for, 0 for infinite. Exiting after an expired duration
will log the total runtime. Defaults to infinite.

	--decoder=manchester

Comma-separated list of payload decoders tried in order, the first to accept
a frame produces the message. Available decoders:

	raw:        hex of all 256 captured bits
	manchester: manchester decoded hex up to the first invalid symbol pair

	--filterbranch=

Display only messages captured by one of the given branches. Branches are
named by modulation and profile:

	ask/<filter rate>/d<decimation>
	fsk/<deviation>/<channel rate>/d<decimation>

	--format="plain"

Sets the log output format. Defaults to plain.

Plain text is formatted using the following format string:

	{Time:%s Branch:%s SymbolRate:%.0f %s:%s}

No fields are omitted for csv, json or xml output. For json and xml output each
line is an element, there is no root node.

	--unique=0

Suppresses messages with a payload identical to one seen within the given
window. The same transmission is often framed by more than one branch.

	--profiles=

Replaces the built in profile table with a yaml file. Use --dumpprofiles to
write the built in table as a starting point:

	if_rate: 400000
	threshold: 0
	ask:
	  - filter_rate: 4040
	    decimation: 10
	    rates:
	      - symbol_rate: 4040
	        access_codes:
	          - "0101010101010101010110"

	--threshold=0

Number of bit errors tolerated when matching an access code.

	--samplefile=

Replays samples from a file instead of connecting to rtl_tcp. Sample format is
given by --sampleformat, either u8 (interleaved unsigned bytes as produced by
rtl_sdr) or cf32 (interleaved little-endian float32), at --filerate.

	--burstdir=

Records bursts of energy above --burstthreshold dBFS to cf32 files at the IF
rate. File names are formed from --burstpattern, a strftime pattern, followed
by the sample rate and a sequence number.

	--metrics=

Serves prometheus metrics on the given address at /metrics.

	--single=false

Provides one shot execution. Receiver listens until exactly one message is
decoded before exiting.

	--server="127.0.0.1:1234"

Sets rtl_tcp server address or hostname and port to connect to.

Every flag may also be given by an environment variable named RTLTPMS_ followed
by the upper case flag name, command-line flags take precedence.
*/
package main
