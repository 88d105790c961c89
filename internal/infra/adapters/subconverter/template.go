package subconverter

var convertTemplate string = `{{ escape .Tool }} -y -hide_banner -loglevel error -i {{ escape .Input }} -c:s {{ .Codec }} {{ escape .Output }}`
